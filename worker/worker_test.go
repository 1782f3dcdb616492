package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pgqueue/pgqueue"
	"github.com/pgqueue/pgqueue/connector"
	"github.com/pgqueue/pgqueue/worker"
)

type stubNotifier struct {
	sink func(connector.Notification)
}

func (n *stubNotifier) Listen(ctx context.Context, channel string, sink func(connector.Notification)) error {
	n.sink = sink
	return nil
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) FetchOne(ctx context.Context, workerID uuid.UUID, queues []string) (*pgqueue.Job, error) {
	args := m.Called(ctx, workerID, queues)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pgqueue.Job), args.Error(1)
}

func (m *mockRepository) Finish(ctx context.Context, jobID int64, outcome pgqueue.Outcome) error {
	args := m.Called(ctx, jobID, outcome)
	return args.Error(0)
}

func (m *mockRepository) Heartbeat(ctx context.Context, jobID int64, workerID uuid.UUID) error {
	args := m.Called(ctx, jobID, workerID)
	return args.Error(0)
}

func (m *mockRepository) ReapStranded(ctx context.Context, cutoff time.Time) ([]int64, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type payload struct {
	Value int `json:"value"`
}

func TestNew_NilRepository(t *testing.T) {
	registry := pgqueue.NewRegistry().Seal()
	w, err := worker.New(nil, registry)
	assert.ErrorIs(t, err, pgqueue.ErrRepositoryNil)
	assert.Nil(t, w)
}

func TestNew_NilRegistry(t *testing.T) {
	repo := new(mockRepository)
	w, err := worker.New(repo, nil)
	assert.ErrorIs(t, err, pgqueue.ErrNoHandlers)
	assert.Nil(t, w)
}

func TestNew_WithOptions(t *testing.T) {
	repo := new(mockRepository)
	registry := pgqueue.NewRegistry().Seal()

	w, err := worker.New(repo, registry,
		worker.WithQueues("default", "emails"),
		worker.WithConcurrency(3),
		worker.WithPollingInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.NotEqual(t, uuid.Nil, w.ID())
}

func TestWorker_RunProcessesFetchedJobToSuccess(t *testing.T) {
	repo := new(mockRepository)
	registry := pgqueue.NewRegistry()

	handled := make(chan struct{}, 1)
	require.NoError(t, registry.Register(pgqueue.NewHandler("add_one", func(ctx context.Context, p payload) error {
		handled <- struct{}{}
		return nil
	})))
	registry.Seal()

	job := &pgqueue.Job{ID: 1, Queue: "default", TaskName: "add_one", Args: json.RawMessage(`{"value":1}`)}

	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(job, nil).Once()
	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("Finish", mock.Anything, int64(1), mock.MatchedBy(func(o pgqueue.Outcome) bool { return o.IsSuccess() })).Return(nil).Once()

	w, err := worker.New(repo, registry, worker.WithConcurrency(1), worker.WithPollingInterval(5*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, w.Start(ctx))

	select {
	case <-handled:
	case <-time.After(150 * time.Millisecond):
		t.Fatal("handler was never invoked")
	}

	require.NoError(t, w.Stop())
	repo.AssertCalled(t, "Finish", mock.Anything, int64(1), mock.Anything)
}

func TestWorker_HandlerFailureWithoutRetryFinishesAsFailure(t *testing.T) {
	repo := new(mockRepository)
	registry := pgqueue.NewRegistry()

	require.NoError(t, registry.Register(pgqueue.NewHandler("boom", func(ctx context.Context, p payload) error {
		return errors.New("boom")
	})))
	registry.Seal()

	job := &pgqueue.Job{ID: 2, Queue: "default", TaskName: "boom", Args: json.RawMessage(`{}`)}

	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(job, nil).Once()
	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	done := make(chan struct{}, 1)
	repo.On("Finish", mock.Anything, int64(2), mock.MatchedBy(func(o pgqueue.Outcome) bool {
		return o.IsFailure()
	})).Run(func(args mock.Arguments) { done <- struct{}{} }).Return(nil).Once()

	w, err := worker.New(repo, registry,
		worker.WithConcurrency(1),
		worker.WithPollingInterval(5*time.Millisecond),
		worker.WithRetryPolicy(func(attempt int, err error) (time.Duration, bool) { return 0, false }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Start(ctx))

	select {
	case <-done:
	case <-time.After(150 * time.Millisecond):
		t.Fatal("finish was never called")
	}
	require.NoError(t, w.Stop())
}

func TestWorker_TaskNotFoundFinishesAsFailure(t *testing.T) {
	repo := new(mockRepository)
	registry := pgqueue.NewRegistry().Seal()

	job := &pgqueue.Job{ID: 3, Queue: "default", TaskName: "unknown_task", Args: json.RawMessage(`{}`)}

	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(job, nil).Once()
	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	done := make(chan struct{}, 1)
	repo.On("Finish", mock.Anything, int64(3), mock.MatchedBy(func(o pgqueue.Outcome) bool {
		return o.IsFailure()
	})).Run(func(args mock.Arguments) { done <- struct{}{} }).Return(nil).Once()

	w, err := worker.New(repo, registry, worker.WithConcurrency(1), worker.WithPollingInterval(5*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Start(ctx))

	select {
	case <-done:
	case <-time.After(150 * time.Millisecond):
		t.Fatal("finish was never called")
	}
	require.NoError(t, w.Stop())
}

func TestWorker_TaskRetryPolicyOverridesWorkerDefault(t *testing.T) {
	repo := new(mockRepository)
	registry := pgqueue.NewRegistry()

	require.NoError(t, registry.Register(
		pgqueue.NewHandler("flaky", func(ctx context.Context, p payload) error {
			return errors.New("transient")
		}),
		pgqueue.WithTaskRetryPolicy(func(attempt int, err error) (time.Duration, bool) {
			return time.Millisecond, true
		}),
	))
	registry.Seal()

	job := &pgqueue.Job{ID: 4, Queue: "default", TaskName: "flaky", Args: json.RawMessage(`{}`)}

	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(job, nil).Once()
	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	done := make(chan struct{}, 1)
	repo.On("Finish", mock.Anything, int64(4), mock.MatchedBy(func(o pgqueue.Outcome) bool {
		return o.IsRetry()
	})).Run(func(args mock.Arguments) { done <- struct{}{} }).Return(nil).Once()

	w, err := worker.New(repo, registry,
		worker.WithConcurrency(1),
		worker.WithPollingInterval(5*time.Millisecond),
		worker.WithRetryPolicy(func(attempt int, err error) (time.Duration, bool) { return 0, false }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Start(ctx))

	select {
	case <-done:
	case <-time.After(150 * time.Millisecond):
		t.Fatal("finish was never called")
	}
	require.NoError(t, w.Stop())
}

func TestWorker_StopWaitsForGracePeriodBeforeCancellingHandler(t *testing.T) {
	repo := new(mockRepository)
	registry := pgqueue.NewRegistry()

	cancelled := make(chan struct{}, 1)
	started := make(chan struct{}, 1)
	require.NoError(t, registry.Register(pgqueue.NewHandler("slow", func(ctx context.Context, p payload) error {
		started <- struct{}{}
		<-ctx.Done()
		cancelled <- struct{}{}
		return ctx.Err()
	})))
	registry.Seal()

	job := &pgqueue.Job{ID: 6, Queue: "default", TaskName: "slow", Args: json.RawMessage(`{}`)}

	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(job, nil).Once()
	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("Finish", mock.Anything, int64(6), mock.Anything).Return(nil).Once()

	w, err := worker.New(repo, registry,
		worker.WithConcurrency(1),
		worker.WithPollingInterval(5*time.Millisecond),
		worker.WithShutdownTimeout(30*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Start(ctx))

	select {
	case <-started:
	case <-time.After(150 * time.Millisecond):
		t.Fatal("handler was never invoked")
	}

	stopStart := time.Now()
	require.NoError(t, w.Stop())
	stopDuration := time.Since(stopStart)

	select {
	case <-cancelled:
	default:
		t.Fatal("handler was never cancelled by Stop")
	}
	assert.GreaterOrEqual(t, stopDuration, 30*time.Millisecond,
		"Stop returned before the shutdown grace period elapsed")
}

func TestWorker_NotifyWakesSubWorkerBeforePollTick(t *testing.T) {
	repo := new(mockRepository)
	registry := pgqueue.NewRegistry()

	handled := make(chan struct{}, 1)
	require.NoError(t, registry.Register(pgqueue.NewHandler("add_one", func(ctx context.Context, p payload) error {
		handled <- struct{}{}
		return nil
	})))
	registry.Seal()

	job := &pgqueue.Job{ID: 5, Queue: "default", TaskName: "add_one", Args: json.RawMessage(`{"value":1}`)}

	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(job, nil).Once()
	repo.On("FetchOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("Finish", mock.Anything, int64(5), mock.Anything).Return(nil).Once()

	notifier := &stubNotifier{}
	w, err := worker.New(repo, registry,
		worker.WithConcurrency(1),
		worker.WithPollingInterval(time.Hour),
		worker.WithNotifier(notifier),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Start(ctx))
	require.NotNil(t, notifier.sink, "worker did not subscribe through the Notifier")

	notifier.sink(connector.Notification{Channel: "procrastinate_any_queue"})

	select {
	case <-handled:
	case <-time.After(150 * time.Millisecond):
		t.Fatal("handler was never invoked; notify did not wake the sub-worker")
	}
	require.NoError(t, w.Stop())
}
