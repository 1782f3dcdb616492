package connector

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Notification is delivered to a Listen sink whenever the database emits a
// NOTIFY on the subscribed channel. Payload carries the small JSON blob
// procrastinate_notify_queue builds, but nothing in this package ever
// depends on its content for correctness — a worker only uses the arrival
// of a notification as a signal to wake a sub-worker early.
type Notification struct {
	Channel string
	Payload string
}

// Connector carries SQL and notifications between the store and the
// database. It is the one place both halves meet: every store operation
// runs through Execute, and the worker's wake-up-on-NOTIFY path runs
// through Listen.
type Connector interface {
	// Execute runs a parameterized statement and returns the full result
	// set. Safe to call from multiple goroutines concurrently.
	Execute(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// ExecuteRow runs a parameterized statement expected to return at
	// most one row.
	ExecuteRow(ctx context.Context, sql string, args ...any) pgx.Row

	// ExecuteTx runs fn inside a transaction, committing on a nil return
	// and rolling back otherwise.
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error

	// Listen subscribes to NOTIFY on channel; every notification received
	// is sent to sink. Listen returns once sink is registered; the LISTEN
	// itself is issued by a background goroutine, and delivery continues
	// in the background until ctx is cancelled or Close is called. Returns ErrListenUnavailable (logged,
	// not fatal) if the pool has too few connections to dedicate one to
	// listening.
	Listen(ctx context.Context, channel string, sink func(Notification)) error

	// Close drains and releases all connections.
	Close()
}
