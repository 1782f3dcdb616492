package worker

import (
	"log/slog"
	"time"

	"github.com/pgqueue/pgqueue/retry"
)

// Option is a functional option for configuring a Worker.
type Option func(*options)

type options struct {
	queues            []string
	concurrency       int
	pollingInterval   time.Duration
	shutdownTimeout   time.Duration
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	janitorInterval   time.Duration
	retryPolicy       retry.Policy
	notifier          Notifier
	logger            *slog.Logger
}

func defaultOptions() *options {
	return &options{
		concurrency:       5,
		pollingInterval:   5 * time.Second,
		shutdownTimeout:   30 * time.Second,
		heartbeatInterval: time.Minute,
		heartbeatTimeout:  5 * time.Minute,
		janitorInterval:   time.Minute,
		retryPolicy:       retry.New(retry.WithJitter(retry.Exponential(time.Second), 0.2), 5),
		logger:            slog.Default(),
	}
}

// WithQueues restricts the worker to the given queues. The default is all
// queues (nil filter).
func WithQueues(queues ...string) Option {
	return func(o *options) { o.queues = queues }
}

// WithConcurrency sets how many sub-workers run concurrently.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithPollingInterval sets how often an idle sub-worker polls when NOTIFY
// has not woken it first.
func WithPollingInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollingInterval = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight jobs before
// cancelling their handler contexts.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithHeartbeatInterval sets how often a sub-worker refreshes heartbeat_at
// for the job it currently holds.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeatInterval = d
		}
	}
}

// WithHeartbeatTimeout sets how stale a heartbeat must be before the
// janitor reaps the row back to todo.
func WithHeartbeatTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeatTimeout = d
		}
	}
}

// WithJanitorInterval sets the janitor's reap-sweep period.
func WithJanitorInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.janitorInterval = d
		}
	}
}

// WithRetryPolicy sets the worker's default retry policy, used for any
// task that was not registered with its own override via
// pgqueue.WithTaskRetryPolicy. The default is exponential backoff from
// one second, jittered 20%, capped at 5 attempts.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *options) {
		if p != nil {
			o.retryPolicy = p
		}
	}
}

// WithNotifier gives the worker a Connector to Listen on for NOTIFY,
// waking an idle sub-worker as soon as a job lands instead of waiting for
// its next poll tick. Without one, the worker polls only. Pass the same
// *connector.PGXConnector the Store was built over.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the worker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
