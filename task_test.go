package pgqueue_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgqueue/pgqueue"
)

type greetArgs struct {
	Name string `json:"name"`
}

func TestRegistry_LookupReturnsRegisteredHandler(t *testing.T) {
	r := pgqueue.NewRegistry()
	h := pgqueue.NewHandler("greet", func(ctx context.Context, args greetArgs) error { return nil })
	require.NoError(t, r.Register(h))
	r.Seal()

	got, err := r.Lookup("greet")
	require.NoError(t, err)
	assert.Equal(t, "greet", got.Name())
}

func TestRegistry_LookupUnknownTaskReturnsTaskNotFound(t *testing.T) {
	r := pgqueue.NewRegistry().Seal()
	_, err := r.Lookup("nope")
	assert.ErrorIs(t, err, pgqueue.TaskNotFound)
}

func TestRegistry_RegisterRejectsDuplicateName(t *testing.T) {
	r := pgqueue.NewRegistry()
	h := pgqueue.NewHandler("greet", func(ctx context.Context, args greetArgs) error { return nil })
	require.NoError(t, r.Register(h))
	assert.ErrorIs(t, r.Register(h), pgqueue.ErrTaskAlreadyRegistered)
}

func TestRegistry_RegisterPanicsAfterSeal(t *testing.T) {
	r := pgqueue.NewRegistry().Seal()
	h := pgqueue.NewHandler("late", func(ctx context.Context, args greetArgs) error { return nil })
	assert.Panics(t, func() { _ = r.Register(h) })
}

func TestRegistry_PolicyFallsBackWhenNoOverride(t *testing.T) {
	r := pgqueue.NewRegistry()
	require.NoError(t, r.Register(pgqueue.NewHandler("plain", func(ctx context.Context, args greetArgs) error { return nil })))

	_, ok := r.Policy("plain")
	assert.False(t, ok, "task with no WithTaskRetryPolicy override should report ok=false")
}

func TestRegistry_PolicyReturnsTaskOverride(t *testing.T) {
	r := pgqueue.NewRegistry()
	called := false
	override := func(attempt int, err error) (time.Duration, bool) {
		called = true
		return 0, false
	}
	require.NoError(t, r.Register(
		pgqueue.NewHandler("strict", func(ctx context.Context, args greetArgs) error { return nil }),
		pgqueue.WithTaskRetryPolicy(override),
	))

	p, ok := r.Policy("strict")
	require.True(t, ok)
	_, _ = p(1, nil)
	assert.True(t, called, "Registry.Policy should return the exact override passed to WithTaskRetryPolicy")
}

func TestRegistry_ScheduleReturnsTaskSchedule(t *testing.T) {
	r := pgqueue.NewRegistry()
	args := json.RawMessage(`{"name":"cron"}`)
	require.NoError(t, r.Register(
		pgqueue.NewHandler("nightly", func(ctx context.Context, a greetArgs) error { return nil }),
		pgqueue.WithTaskSchedule("0 0 * * *", time.UTC, "default", args),
	))

	cronExpr, loc, queue, gotArgs, ok := r.Schedule("nightly")
	require.True(t, ok)
	assert.Equal(t, "0 0 * * *", cronExpr)
	assert.Equal(t, time.UTC, loc)
	assert.Equal(t, "default", queue)
	assert.Equal(t, args, gotArgs)
}

func TestRegistry_ScheduleFalseWhenTaskIsNotPeriodic(t *testing.T) {
	r := pgqueue.NewRegistry()
	require.NoError(t, r.Register(pgqueue.NewHandler("adhoc", func(ctx context.Context, args greetArgs) error { return nil })))

	_, _, _, _, ok := r.Schedule("adhoc")
	assert.False(t, ok)
}

func TestRegistry_Names(t *testing.T) {
	r := pgqueue.NewRegistry()
	require.NoError(t, r.Register(pgqueue.NewHandler("a", func(ctx context.Context, args greetArgs) error { return nil })))
	require.NoError(t, r.Register(pgqueue.NewHandler("b", func(ctx context.Context, args greetArgs) error { return nil })))

	assert.ElementsMatch(t, []string{"a", "b"}, r.Names())
}
