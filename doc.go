// Package pgqueue implements a PostgreSQL-backed task queue: producers defer
// jobs, one or more worker processes fetch and execute them, and a periodic
// deferrer enqueues recurring jobs on a cron schedule. PostgreSQL is the
// sole broker — there is no separate message bus.
//
// The package is organized leaf-first:
//
//   - connector: owns database connections and LISTEN/NOTIFY.
//   - store: the fixed set of SQL operations (defer, fetch, finish, ...).
//   - worker: the concurrent fetch/execute/retry loop and the periodic
//     deferrer that runs alongside it.
//
// This root package holds the vocabulary shared by all three: Job, Status,
// Task, Handler, and the error kinds tasks and callers check for with
// errors.Is.
//
// # Usage
//
//	var cfg connector.Config // read from PGQUEUE_CONN_URL and friends
//	err := pgqueue.LoadConfig(&cfg)
//	conn, err := connector.Connect(ctx, cfg, logger)
//	st, err := store.New(conn)
//
//	registry := pgqueue.NewRegistry()
//	err = registry.Register(pgqueue.NewHandler("email.send", sendEmail))
//	w, err := worker.New(st, registry.Seal(), worker.WithConcurrency(4), worker.WithNotifier(conn))
//	err = w.Run(ctx)
package pgqueue
