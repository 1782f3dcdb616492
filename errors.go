package pgqueue

import "errors"

// Error kinds. Callers and task handlers check these with errors.Is; none
// of them carry a type name beyond the sentinel itself.
var (
	// ConnectorError wraps a database-unreachable or protocol error that
	// survived the Connector's own retry budget.
	ConnectorError = errors.New("connector: database unreachable")

	// AlreadyEnqueued is returned by Defer when a queueing-lock rejects
	// the insert because a job with the same lock is still todo or doing.
	AlreadyEnqueued = errors.New("store: job already enqueued under this queueing lock")

	// TaskNotFound is returned when a fetched job names a task this
	// worker has no handler for. Non-retryable.
	TaskNotFound = errors.New("worker: no handler registered for task")

	// RetryableError, when returned (or wrapped) by a handler, requests a
	// retry with a policy-computed delay rather than the policy's default
	// classification of the underlying error.
	RetryableError = errors.New("worker: task requested a retry")

	// JobAborted, when returned by a handler, finishes the job as failed
	// immediately with no retry, regardless of what the retry policy
	// would otherwise decide. Handlers return this from their
	// cancellation path.
	JobAborted = errors.New("worker: job aborted, no retry")

	// UnexpectedJobStatus means a finish call found the row not in
	// doing. This indicates a programmer error or a concurrent reap.
	// Store.Finish returns it; the Worker logs it and carries on.
	UnexpectedJobStatus = errors.New("store: job was not in doing status")

	// ErrRepositoryNil is returned by constructors that require a
	// non-nil store/repository dependency.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrNoHandlers is returned by worker.New when it is given a nil task
	// Registry.
	ErrNoHandlers = errors.New("worker has no registered task handlers")

	// ErrTaskAlreadyRegistered is returned when a handler or periodic
	// task is registered twice under the same name.
	ErrTaskAlreadyRegistered = errors.New("task already registered")

	// ErrInvalidCronExpr is returned when a cron expression does not
	// parse as five whitespace-separated fields.
	ErrInvalidCronExpr = errors.New("cron: invalid expression")
)
