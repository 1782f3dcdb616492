package store

import "time"

// DeferOptions controls the optional parts of a Defer call.
type DeferOptions struct {
	QueueingLock string
	ScheduledAt  *time.Time
}

// DeferOption mutates a DeferOptions in place.
type DeferOption func(*DeferOptions)

// WithQueueingLock rejects the insert (returning pgqueue.AlreadyEnqueued) if
// a job with the same lock is still todo or doing.
func WithQueueingLock(lock string) DeferOption {
	return func(o *DeferOptions) { o.QueueingLock = lock }
}

// WithScheduledAt defers the job so it cannot be fetched before at.
func WithScheduledAt(at time.Time) DeferOption {
	return func(o *DeferOptions) { o.ScheduledAt = &at }
}

func resolveDeferOptions(opts []DeferOption) DeferOptions {
	var o DeferOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
