// Package store implements the Job Store: the fixed set of SQL operations
// — defer, fetch_one, finish, list_jobs, cancel, delete_old_jobs,
// defer_periodic, reap_stranded — that every higher layer speaks in domain
// terms through. All SQL lives here; nothing above this package ever
// writes a query.
//
// Every mutating operation runs in its own transaction: defer, fetch_one,
// finish, heartbeat and reap_stranded are each a single statement, and
// cancel and defer_periodic, which need more than one, go through
// connector.Connector.ExecuteTx. SELECT ... FOR UPDATE SKIP LOCKED is the
// sole mechanism by which concurrent fetchers avoid contention on
// fetch_one and reap_stranded.
package store
