// Package connector owns every database connection the queue uses. It
// exposes a small capability — Execute, ExecuteRow, ExecuteTx, Listen,
// Close — that the store package runs all of its SQL through. The
// capability speaks pgx result types (pgx.Rows, pgx.Row, pgx.Tx), so the
// store package imports pgx for those types but never opens a connection
// itself.
//
// The capability is deliberately a single Go interface rather than
// separate synchronous and asynchronous implementations: goroutines
// already give every caller of Execute or Listen the concurrency a
// cooperative-driver flavor would otherwise require a second code path
// for, so PGXConnector is the one production implementation, and the
// interface exists purely so tests can substitute a fake.
package connector
