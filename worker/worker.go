package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pgqueue/pgqueue"
	"github.com/pgqueue/pgqueue/connector"
	"github.com/pgqueue/pgqueue/retry"
)

// Worker owns N sub-workers pulling jobs from a WorkerRepository and
// dispatching them to handlers in a Registry. It also runs the stranded-job
// Janitor as a background goroutine for the lifetime of the worker.
type Worker struct {
	repo     WorkerRepository
	registry *pgqueue.Registry
	id       uuid.UUID

	queues        []string
	concurrency   int
	poll          time.Duration
	shutdown      time.Duration
	hbInterval    time.Duration
	defaultPolicy retry.Policy
	logger        *slog.Logger

	notifier Notifier
	wake     chan struct{}

	janitor *Janitor

	wg sync.WaitGroup

	mu             sync.Mutex
	cancel         context.CancelFunc
	handlerCtx     context.Context
	cancelHandlers context.CancelFunc
	stopping       atomic.Bool
}

// New builds a Worker over repo and registry. registry must already be
// sealed; repo must not be nil.
func New(repo WorkerRepository, registry *pgqueue.Registry, opts ...Option) (*Worker, error) {
	if repo == nil {
		return nil, pgqueue.ErrRepositoryNil
	}
	if registry == nil {
		return nil, pgqueue.ErrNoHandlers
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	w := &Worker{
		repo:          repo,
		registry:      registry,
		id:            uuid.New(),
		queues:        o.queues,
		concurrency:   o.concurrency,
		poll:          o.pollingInterval,
		shutdown:      o.shutdownTimeout,
		hbInterval:    o.heartbeatInterval,
		defaultPolicy: o.retryPolicy,
		logger:        o.logger,
		notifier:      o.notifier,
		wake:          make(chan struct{}, 1),
	}

	w.janitor = NewJanitor(repo, o.janitorInterval, o.heartbeatTimeout, o.logger)

	return w, nil
}

// ID is this worker process's session identity, stamped onto every job row
// it holds as locked_by.
func (w *Worker) ID() uuid.UUID { return w.id }

// Run starts the worker, blocks until ctx is cancelled, then drains
// in-flight jobs and returns. It is meant to be the last call in a
// program's main, or run under an errgroup.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// Start launches the sub-worker loops and the janitor in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return errors.New("worker: already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	handlerCtx, cancelHandlers := context.WithCancel(context.Background())
	w.cancel = cancel
	w.handlerCtx = handlerCtx
	w.cancelHandlers = cancelHandlers
	w.mu.Unlock()

	w.stopping.Store(false)

	w.startNotify(runCtx)

	for i := 0; i < w.concurrency; i++ {
		go w.subWorkerLoop(runCtx, i)
	}
	go w.janitor.run(runCtx)

	w.logger.Info("worker started",
		slog.String("worker_id", w.id.String()),
		slog.Any("queues", w.queues),
		slog.Int("concurrency", w.concurrency))
	return nil
}

// Stop signals all sub-workers to stop fetching new jobs, then waits up to
// the configured shutdown grace period for in-flight handlers to finish
// before cancelling their contexts. Handlers never see cancellation before
// that grace period elapses, or at all if they finish within it.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return errors.New("worker: not started")
	}
	w.stopping.Store(true)
	cancel := w.cancel
	cancelHandlers := w.cancelHandlers
	w.cancel = nil
	w.mu.Unlock()
	defer cancelHandlers()

	cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.shutdown):
		w.logger.Warn("worker: shutdown grace period elapsed, cancelling in-flight handlers",
			slog.String("worker_id", w.id.String()))
		cancelHandlers()
		<-done
	}

	w.logger.Info("worker stopped", slog.String("worker_id", w.id.String()))
	return nil
}

// startNotify subscribes to NOTIFY on every channel this worker's queue
// filter watches, waking an idle sub-worker immediately instead of making
// it wait out the next poll tick. A nil notifier (no Notifier configured)
// or ErrListenUnavailable (pool too small to dedicate a listen connection)
// just leaves the worker polling on its ticker alone — NOTIFY is a
// latency optimization, never a delivery requirement.
func (w *Worker) startNotify(ctx context.Context) {
	if w.notifier == nil {
		return
	}
	for _, channel := range listenChannels(w.queues) {
		if err := w.notifier.Listen(ctx, channel, w.onNotify); err != nil {
			w.logger.Warn("worker: listen failed, falling back to polling only",
				slog.String("channel", channel), slog.String("error", err.Error()))
		}
	}
}

// onNotify wakes at most one idle sub-worker per call. A full wake channel
// means a wake-up is already pending, so the send is dropped rather than
// blocking the listener's dispatch goroutine.
func (w *Worker) onNotify(connector.Notification) {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// subWorkerLoop implements a single sub-worker's idle -> fetching ->
// running -> finishing -> idle cycle. While idle it wakes on whichever
// comes first: a NOTIFY relayed through wake, its own poll tick, or
// shutdown. After running a job it fetches again at once, and goes back to
// idle only when a fetch finds no job.
func (w *Worker) subWorkerLoop(ctx context.Context, index int) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		case <-ticker.C:
		}

		for {
			if w.stopping.Load() || ctx.Err() != nil {
				return
			}
			w.wg.Add(1)
			found := w.fetchAndRun(ctx)
			w.wg.Done()
			if !found {
				break
			}
		}
	}
}

// fetchAndRun claims at most one job and runs it to completion, reporting
// the outcome. It reports whether a job was claimed; a missing job
// (nil, nil) is the normal idle case.
func (w *Worker) fetchAndRun(ctx context.Context) bool {
	job, err := w.repo.FetchOne(ctx, w.id, w.queues)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.logger.Error("worker: fetch_one failed", slog.String("error", err.Error()))
		}
		return false
	}
	if job == nil {
		return false
	}

	w.logger.Debug("job claimed",
		slog.Int64("job_id", job.ID), slog.String("task_name", job.TaskName), slog.String("queue", job.Queue))

	stopHeartbeat := w.startHeartbeat(w.handlerCtx, job.ID)
	outcome := w.runHandler(w.handlerCtx, job)
	stopHeartbeat()

	if err := w.repo.Finish(context.WithoutCancel(ctx), job.ID, outcome); err != nil {
		if errors.Is(err, pgqueue.UnexpectedJobStatus) {
			w.logger.Warn("worker: finish found job not doing, likely reaped concurrently",
				slog.Int64("job_id", job.ID))
			return true
		}
		w.logger.Error("worker: finish failed", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
	}
	return true
}

// startHeartbeat refreshes heartbeat_at for jobID on its own ticker until
// the returned stop function is called.
func (w *Worker) startHeartbeat(ctx context.Context, jobID int64) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(w.hbInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.repo.Heartbeat(context.WithoutCancel(ctx), jobID, w.id); err != nil {
					w.logger.Warn("worker: heartbeat failed", slog.Int64("job_id", jobID), slog.String("error", err.Error()))
				}
			}
		}
	}()
	return func() { close(stop) }
}

// runHandler dispatches job to its registered handler, converting a panic
// into a non-retryable failure (unless the panic value is an error wrapping
// pgqueue.RetryableError), and classifies the result through the
// worker's retry policy. ctx is the worker's handler context, separate from
// the fetch loop's context so Stop can let a handler run out its grace
// period instead of being cancelled the instant shutdown begins.
func (w *Worker) runHandler(ctx context.Context, job *pgqueue.Job) (outcome pgqueue.Outcome) {
	handler, err := w.registry.Lookup(job.TaskName)
	if err != nil {
		w.logger.Error("worker: no handler for task", slog.String("task_name", job.TaskName), slog.Int64("job_id", job.ID))
		return pgqueue.Failure()
	}

	exec := pgqueue.Execution{JobID: job.ID, Queue: job.Queue, TaskName: job.TaskName, Attempts: job.Attempts + 1}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	panicked := false
	runErr := func() (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				w.logger.Error("worker: handler panicked",
					slog.Int64("job_id", job.ID), slog.String("task_name", job.TaskName), slog.Any("panic", r))
				retErr = fmt.Errorf("worker: handler panic: %v", r)
				if e, ok := r.(error); ok {
					retErr = fmt.Errorf("worker: handler panic: %w", e)
				}
			}
		}()
		return handler.Handle(handlerCtx, exec, job.Args)
	}()
	duration := time.Since(start)

	if runErr == nil {
		w.logger.Info("job succeeded",
			slog.Int64("job_id", job.ID), slog.String("task_name", job.TaskName), slog.Duration("duration", duration))
		return pgqueue.Success()
	}

	if errors.Is(runErr, pgqueue.JobAborted) {
		w.logger.Warn("job aborted", slog.Int64("job_id", job.ID), slog.String("task_name", job.TaskName))
		return pgqueue.Failure()
	}

	if panicked && !errors.Is(runErr, pgqueue.RetryableError) {
		return pgqueue.Failure()
	}

	policy := w.defaultPolicy
	if p, ok := w.registry.Policy(job.TaskName); ok {
		policy = p
	}

	delay, retry := policy(exec.Attempts, runErr)
	if errors.Is(runErr, pgqueue.RetryableError) && !retry {
		retry = true
		if delay <= 0 {
			delay = time.Second
		}
	}
	w.logger.Error("job failed",
		slog.Int64("job_id", job.ID), slog.String("task_name", job.TaskName),
		slog.Int("attempt", exec.Attempts), slog.Bool("retry", retry), slog.String("error", runErr.Error()))

	if !retry {
		return pgqueue.Failure()
	}
	return pgqueue.Retry(time.Now().Add(delay))
}
