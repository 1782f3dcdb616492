package pgqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pgqueue/pgqueue/retry"
)

// Execution carries the metadata of a running job to handlers that opt in
// to receiving it (the "pass-context flag"), distinct from the context.Context
// cancellation channel.
type Execution struct {
	JobID    int64
	Queue    string
	TaskName string
	Attempts int
}

// Handler dispatches the raw argument bytes of a fetched job to application
// code. Name identifies the task; it is the string the Store persists on
// the job row and the key the Worker's Registry looks handlers up by.
type Handler interface {
	Name() string
	Handle(ctx context.Context, exec Execution, args json.RawMessage) error
}

// HandlerFunc is the shape of a task handler that only needs its typed
// arguments.
type HandlerFunc[T any] func(ctx context.Context, args T) error

// HandlerFuncWithExecution is the shape of a task handler that also wants
// the job's execution metadata (attempts so far, queue, job id) — the
// "pass-context" variant.
type HandlerFuncWithExecution[T any] func(ctx context.Context, exec Execution, args T) error

// NewHandler wraps fn as a named Handler. Args are JSON-unmarshaled into T
// before fn is called.
func NewHandler[T any](name string, fn HandlerFunc[T]) Handler {
	return &handler[T]{name: name, fn: func(ctx context.Context, _ Execution, args T) error {
		return fn(ctx, args)
	}}
}

// NewHandlerWithExecution is like NewHandler but also hands the handler its
// Execution metadata.
func NewHandlerWithExecution[T any](name string, fn HandlerFuncWithExecution[T]) Handler {
	return &handler[T]{name: name, fn: fn}
}

type handler[T any] struct {
	name string
	fn   HandlerFuncWithExecution[T]
}

func (h *handler[T]) Name() string { return h.name }

func (h *handler[T]) Handle(ctx context.Context, exec Execution, args json.RawMessage) error {
	var t T
	if len(args) > 0 {
		if err := json.Unmarshal(args, &t); err != nil {
			return err
		}
	}
	return h.fn(ctx, exec, t)
}

// taskDescriptor is a task's full registration: its handler callable, an
// optional retry policy overriding the Worker's default, and an optional
// cron schedule for the Deferrer to run it on.
type taskDescriptor struct {
	handler  Handler
	policy   retry.Policy
	schedule string
	loc      *time.Location
	queue    string
	args     json.RawMessage
}

// TaskOption configures a taskDescriptor at Register time.
type TaskOption func(*taskDescriptor)

// WithTaskRetryPolicy overrides the Worker's default retry policy for this
// task alone. A task with no override uses whatever policy the Worker was
// built with.
func WithTaskRetryPolicy(p retry.Policy) TaskOption {
	return func(d *taskDescriptor) { d.policy = p }
}

// WithTaskSchedule marks a task as periodic: cronExpr, evaluated in loc,
// names the slots on which it should be deferred into queue with args. A
// Deferrer built against this Registry (see worker.Deferrer.LoadSchedules)
// picks this up without a separate Deferrer.Register call.
func WithTaskSchedule(cronExpr string, loc *time.Location, queue string, args json.RawMessage) TaskOption {
	return func(d *taskDescriptor) {
		d.schedule = cronExpr
		d.loc = loc
		d.queue = queue
		d.args = args
	}
}

// Registry is an immutable-after-build map from task name to its
// descriptor (handler, retry policy, schedule). It is built once at
// startup by the application and handed to the Worker; there is no
// process-wide registration and no hidden mutation once Seal is called,
// matching the concurrency model's requirement that the task registry
// need no locking for readers.
type Registry struct {
	tasks  map[string]*taskDescriptor
	sealed bool
}

// NewRegistry builds an empty, mutable Registry. Call Register for each
// task, then Seal before handing it to a Worker.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*taskDescriptor)}
}

// Register adds a handler under its own Name(), configured by opts
// (WithTaskRetryPolicy, WithTaskSchedule). It returns
// ErrTaskAlreadyRegistered if a handler with that name already exists, and
// panics if called after Seal — sealing is meant to happen once, at
// startup, before any goroutine reads the registry.
func (r *Registry) Register(h Handler, opts ...TaskOption) error {
	if r.sealed {
		panic("pgqueue: Registry.Register called after Seal")
	}
	if _, exists := r.tasks[h.Name()]; exists {
		return ErrTaskAlreadyRegistered
	}
	d := &taskDescriptor{handler: h}
	for _, opt := range opts {
		opt(d)
	}
	r.tasks[h.Name()] = d
	return nil
}

// Seal marks the registry read-only. Subsequent Lookup calls need no
// locking.
func (r *Registry) Seal() *Registry {
	r.sealed = true
	return r
}

// Lookup returns the handler registered under name, or TaskNotFound.
func (r *Registry) Lookup(name string) (Handler, error) {
	d, ok := r.tasks[name]
	if !ok {
		return nil, TaskNotFound
	}
	return d.handler, nil
}

// Policy returns the retry policy name was registered with via
// WithTaskRetryPolicy. ok is false when the task has no override and the
// Worker's default policy should be used instead.
func (r *Registry) Policy(name string) (p retry.Policy, ok bool) {
	d, exists := r.tasks[name]
	if !exists || d.policy == nil {
		return nil, false
	}
	return d.policy, true
}

// Schedule returns the cron schedule name was registered with via
// WithTaskSchedule. ok is false when the task is not periodic.
func (r *Registry) Schedule(name string) (cronExpr string, loc *time.Location, queue string, args json.RawMessage, ok bool) {
	d, exists := r.tasks[name]
	if !exists || d.schedule == "" {
		return "", nil, "", nil, false
	}
	return d.schedule, d.loc, d.queue, d.args, true
}

// Names returns every registered task name, for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	return names
}
