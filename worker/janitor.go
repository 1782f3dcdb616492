package worker

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically reaps doing rows whose owning worker's heartbeat has
// gone stale, returning them to todo. It is the only component allowed to
// move a job out of doing without having fetched it itself.
type Janitor struct {
	repo     WorkerRepository
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewJanitor builds a Janitor that sweeps every interval, reaping rows
// whose heartbeat_at is older than timeout.
func NewJanitor(repo WorkerRepository, interval, timeout time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{repo: repo, interval: interval, timeout: timeout, logger: logger}
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.timeout)
	ids, err := j.repo.ReapStranded(ctx, cutoff)
	if err != nil {
		j.logger.Error("janitor: reap_stranded failed", slog.String("error", err.Error()))
		return
	}
	for _, id := range ids {
		j.logger.Warn("janitor: reaped stranded job", slog.Int64("job_id", id))
	}
}
