package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pgqueue/pgqueue"
)

// WorkerRepository is the slice of the Job Store a Worker needs: fetch,
// finish, and heartbeat. Defined here, on the consumer side, so store.Store
// is verified to satisfy it structurally rather than worker importing
// store directly.
type WorkerRepository interface {
	FetchOne(ctx context.Context, workerID uuid.UUID, queues []string) (*pgqueue.Job, error)
	Finish(ctx context.Context, jobID int64, outcome pgqueue.Outcome) error
	Heartbeat(ctx context.Context, jobID int64, workerID uuid.UUID) error
	ReapStranded(ctx context.Context, cutoff time.Time) ([]int64, error)
}

// PeriodicRepository is the slice the Deferrer needs to claim a cron slot
// and enqueue its job.
type PeriodicRepository interface {
	DeferPeriodic(ctx context.Context, taskName string, slot time.Time, queue string, args json.RawMessage) (jobID int64, enqueued bool, err error)
}
