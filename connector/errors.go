package connector

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFailedToOpenConnection = errors.New("connector: failed to open connection pool")
	ErrEmptyConnectionString  = errors.New("connector: empty connection string")
	ErrHealthcheckFailed      = errors.New("connector: healthcheck failed")
	ErrFailedToParseConfig    = errors.New("connector: failed to parse connection config")
	ErrListenUnavailable      = errors.New("connector: listen unavailable on a single-connection pool")
)

// IsNotFound reports whether err is pgx's no-rows sentinel.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey reports a unique-constraint violation (SQLSTATE 23505),
// the error the queueing-lock's partial unique index raises.
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return err != nil && errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports SQLSTATE 23503.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return err != nil && errors.As(err, &pgErr) && pgErr.Code == "23503"
}
