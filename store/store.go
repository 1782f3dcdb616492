package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pgqueue/pgqueue"
	"github.com/pgqueue/pgqueue/connector"
)

// Store is the Job Store: every SQL statement this module ever runs lives
// in this package, reached exclusively through a connector.Connector.
type Store struct {
	conn connector.Connector
}

// New wraps conn in a Store. conn must not be nil.
func New(conn connector.Connector) (*Store, error) {
	if conn == nil {
		return nil, pgqueue.ErrRepositoryNil
	}
	return &Store{conn: conn}, nil
}

// Defer inserts a new todo job and returns its id. With WithQueueingLock,
// a concurrent or prior job sharing the lock and still todo or doing causes
// Defer to return pgqueue.AlreadyEnqueued and no row is inserted. The insert
// and its deferred event both happen inside procrastinate_defer_job, so this
// is a single round trip rather than a client-side transaction.
func (s *Store) Defer(ctx context.Context, queue, task string, args json.RawMessage, opts ...DeferOption) (int64, error) {
	o := resolveDeferOptions(opts)

	var queueingLock *string
	if o.QueueingLock != "" {
		queueingLock = &o.QueueingLock
	}

	var id *int64
	row := s.conn.ExecuteRow(ctx, queryDeferJob, queue, task, args, o.ScheduledAt, queueingLock)
	if err := row.Scan(&id); err != nil {
		// Two concurrent defers can both pass the NOT EXISTS check; the
		// partial unique index on queueing_lock then rejects the loser.
		if connector.IsDuplicateKey(err) {
			return 0, pgqueue.AlreadyEnqueued
		}
		return 0, fmt.Errorf("store: defer: %w", err)
	}
	if id == nil {
		return 0, pgqueue.AlreadyEnqueued
	}
	return *id, nil
}

// FetchOne claims and returns the oldest eligible todo job across queues,
// or nil if none is available. workerID is stamped onto locked_by so
// ReapStranded and Heartbeat can attribute the row correctly.
// procrastinate_fetch_job does the SKIP LOCKED claim and the started event
// in one statement.
func (s *Store) FetchOne(ctx context.Context, workerID uuid.UUID, queues []string) (*pgqueue.Job, error) {
	var queueFilter any
	if len(queues) > 0 {
		queueFilter = queues
	}

	row := s.conn.ExecuteRow(ctx, queryFetchJob, workerID, queueFilter)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: fetch_one: %w", err)
	}
	return job, nil
}

// Heartbeat refreshes heartbeat_at for a job this worker still owns. It is
// a no-op, not an error, if the job has since been reaped or finished.
func (s *Store) Heartbeat(ctx context.Context, jobID int64, workerID uuid.UUID) error {
	_, err := s.conn.Execute(ctx, queryHeartbeat, jobID, workerID)
	if err != nil {
		return fmt.Errorf("store: heartbeat: %w", err)
	}
	return nil
}

// Finish commits outcome for jobID. It returns pgqueue.UnexpectedJobStatus
// if the row was not doing, which callers should log and swallow rather
// than propagate. A retry outcome calls procrastinate_retry_job; success
// and failure both call procrastinate_finish_job, which logs its own event.
func (s *Store) Finish(ctx context.Context, jobID int64, outcome pgqueue.Outcome) error {
	var found bool
	var row pgx.Row
	if outcome.IsRetry() {
		row = s.conn.ExecuteRow(ctx, queryRetryJob, jobID, outcome.At())
	} else {
		status := "failed"
		if outcome.IsSuccess() {
			status = "succeeded"
		}
		row = s.conn.ExecuteRow(ctx, queryFinishJob, jobID, status)
	}
	if err := row.Scan(&found); err != nil {
		return fmt.Errorf("store: finish: %w", err)
	}
	if !found {
		return pgqueue.UnexpectedJobStatus
	}
	return nil
}

// Cancel marks a still-todo job as failed without ever running it.
// Returns pgqueue.UnexpectedJobStatus if the job was already doing or
// finished.
func (s *Store) Cancel(ctx context.Context, jobID int64) error {
	return s.conn.ExecuteTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, queryCancel, jobID)
		if err != nil {
			return fmt.Errorf("store: cancel: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgqueue.UnexpectedJobStatus
		}
		_, err = tx.Exec(ctx, queryInsertEvent, jobID, "cancelled")
		return err
	})
}

// ListJobs returns jobs matching queue and status, both optional (pass ""
// to leave a filter off).
func (s *Store) ListJobs(ctx context.Context, queue string, status pgqueue.Status) ([]*pgqueue.Job, error) {
	rows, err := s.conn.Execute(ctx, queryListJobs, queue, string(status))
	if err != nil {
		return nil, fmt.Errorf("store: list_jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*pgqueue.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list_jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteOldJobs removes finished jobs (succeeded or failed) older than
// olderThan, in batches of up to 10000 per call.
func (s *Store) DeleteOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	rows, err := s.conn.Execute(ctx, queryDeleteOldJobs, olderThan)
	if err != nil {
		return 0, fmt.Errorf("store: delete_old_jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.CommandTag().RowsAffected(), rows.Err()
}

// DeferPeriodic enqueues the job for a periodic task's cron slot if that
// slot has not already been deferred. enqueued is false when the slot was
// already claimed by a prior call (possibly from another worker process),
// in which case no job is created.
func (s *Store) DeferPeriodic(ctx context.Context, taskName string, slot time.Time, queue string, args json.RawMessage) (jobID int64, enqueued bool, err error) {
	slotKey := slot.Unix()
	err = s.conn.ExecuteTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, queryDeferPeriodicSlot, taskName, slotKey)
		var claimed string
		if scanErr := row.Scan(&claimed); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				enqueued = false
				return nil
			}
			return fmt.Errorf("store: defer_periodic: %w", scanErr)
		}

		var id *int64
		insertRow := tx.QueryRow(ctx, queryDeferJob, queue, taskName, args, (*time.Time)(nil), (*string)(nil))
		if scanErr := insertRow.Scan(&id); scanErr != nil {
			return fmt.Errorf("store: defer_periodic: insert: %w", scanErr)
		}
		if id == nil {
			// procrastinate_defer_job only returns NULL when a queueing
			// lock rejects the insert, and periodic jobs never set one.
			return fmt.Errorf("store: defer_periodic: insert returned no id")
		}
		jobID = *id
		if _, execErr := tx.Exec(ctx, queryAttachPeriodicJob, taskName, slotKey, jobID); execErr != nil {
			return fmt.Errorf("store: defer_periodic: attach: %w", execErr)
		}
		enqueued = true
		return nil
	})
	return jobID, enqueued, err
}

// ReapStranded reopens doing jobs whose heartbeat has not been refreshed
// since before cutoff, returning the ids it reopened. The worker janitor
// calls this on a timer; it never needs to know which process last held a
// job it reaps.
func (s *Store) ReapStranded(ctx context.Context, cutoff time.Time) ([]int64, error) {
	rows, err := s.conn.Execute(ctx, queryReapStranded, cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: reap_stranded: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: reap_stranded: %w", err)
		}
		ids = append(ids, id)
		if _, err := s.conn.Execute(ctx, queryInsertEvent, id, "reaped"); err != nil {
			return ids, fmt.Errorf("store: reap_stranded: event: %w", err)
		}
	}
	return ids, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*pgqueue.Job, error) {
	var job pgqueue.Job
	var queueingLock *string
	if err := row.Scan(
		&job.ID,
		&job.Queue,
		&job.TaskName,
		&job.Args,
		&job.Status,
		&job.ScheduledAt,
		&queueingLock,
		&job.Attempts,
		&job.LockedBy,
		&job.HeartbeatAt,
	); err != nil {
		return nil, err
	}
	if queueingLock != nil {
		job.QueueingLock = *queueingLock
	}
	return &job, nil
}
