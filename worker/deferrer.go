package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pgqueue/pgqueue"
	"github.com/pgqueue/pgqueue/worker/cron"
)

// periodicTask is one cron-scheduled task registration.
type periodicTask struct {
	name  string
	expr  *cron.Expression
	queue string
	args  json.RawMessage
}

// Deferrer evaluates each registered periodic task against the clock and
// calls defer_periodic for the slot it lands on. A Worker does not start
// one itself: the application runs Deferrer.Run alongside Worker.Run.
// defer_periodic is idempotent on (task, slot), so running a deferrer in
// every worker process is safe: exactly one call wins per slot,
// regardless of how many processes race to make it.
type Deferrer struct {
	repo PeriodicRepository

	mu    sync.RWMutex
	tasks map[string]*periodicTask

	interval    time.Duration
	maxLookback time.Duration
	logger      *slog.Logger
}

// NewDeferrer builds a Deferrer over repo. repo must not be nil.
func NewDeferrer(repo PeriodicRepository, opts ...DeferrerOption) (*Deferrer, error) {
	if repo == nil {
		return nil, pgqueue.ErrRepositoryNil
	}

	o := defaultDeferrerOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Deferrer{
		repo:        repo,
		tasks:       make(map[string]*periodicTask),
		interval:    o.checkInterval,
		maxLookback: o.maxLookback,
		logger:      o.logger,
	}, nil
}

// Register adds a periodic task under name, scheduled per cronExpr
// (evaluated in loc), enqueuing into queue with args on each matched slot.
// Returns ErrTaskAlreadyRegistered if name is already registered, or
// wraps ErrInvalidCronExpr if cronExpr does not parse.
func (d *Deferrer) Register(name, cronExpr string, loc *time.Location, queue string, args json.RawMessage) error {
	expr, err := cron.Parse(cronExpr, loc)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.tasks[name]; exists {
		return pgqueue.ErrTaskAlreadyRegistered
	}
	d.tasks[name] = &periodicTask{name: name, expr: expr, queue: queue, args: args}
	return nil
}

// Run evaluates registered tasks immediately, then on every tick of the
// configured check interval, until ctx is cancelled.
func (d *Deferrer) Run(ctx context.Context) error {
	d.checkAll(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.checkAll(ctx)
		}
	}
}

func (d *Deferrer) checkAll(ctx context.Context) {
	d.mu.RLock()
	tasks := make([]*periodicTask, 0, len(d.tasks))
	for _, t := range d.tasks {
		tasks = append(tasks, t)
	}
	d.mu.RUnlock()

	now := time.Now()
	for _, t := range tasks {
		d.checkOne(ctx, t, now)
	}
}

func (d *Deferrer) checkOne(ctx context.Context, t *periodicTask, now time.Time) {
	slot, ok := t.expr.LatestSlot(now, d.maxLookback)
	if !ok {
		return
	}

	jobID, enqueued, err := d.repo.DeferPeriodic(ctx, t.name, slot, t.queue, t.args)
	if err != nil {
		d.logger.Error("deferrer: defer_periodic failed",
			slog.String("task_name", t.name), slog.Time("slot", slot), slog.String("error", err.Error()))
		return
	}
	if !enqueued {
		d.logger.Debug("deferrer: slot already claimed",
			slog.String("task_name", t.name), slog.Time("slot", slot))
		return
	}

	d.logger.Info("deferrer: enqueued periodic job",
		slog.String("task_name", t.name), slog.Time("slot", slot), slog.Int64("job_id", jobID))
}

// LoadSchedules copies every task in reg that was registered with
// pgqueue.WithTaskSchedule into d, so a Deferrer can be driven entirely by
// the same Registry a Worker dispatches handlers from rather than
// maintaining a second, separate list of periodic tasks.
func (d *Deferrer) LoadSchedules(reg *pgqueue.Registry) error {
	for _, name := range reg.Names() {
		cronExpr, loc, queue, args, ok := reg.Schedule(name)
		if !ok {
			continue
		}
		if err := d.Register(name, cronExpr, loc, queue, args); err != nil {
			return err
		}
	}
	return nil
}

// Names returns every registered periodic task name, for diagnostics.
func (d *Deferrer) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tasks))
	for name := range d.tasks {
		names = append(names, name)
	}
	return names
}
