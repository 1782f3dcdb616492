package connector

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/puddle/v2"
	"github.com/pgqueue/pgqueue"
)

// PGXConnector is the one production Connector, built on pgx/v5 and
// pgxpool. Connect retries opening the pool with linear backoff so a
// worker started slightly before the database is reachable (a common
// container-orchestration race) does not crash on its first line.
type PGXConnector struct {
	pool   *pgxpool.Pool
	cfg    Config
	logger *slog.Logger

	connMu       sync.Mutex
	broadcasters map[string]*notifyBroadcaster
}

// Connect opens a pgxpool.Pool per cfg, retrying cfg.RetryAttempts times
// with linear backoff before giving up. A bad DSN or auth failure that
// pgx itself reports deterministically is not worth retrying and is
// returned immediately, wrapped in ErrFailedToParseConfig /
// ErrFailedToOpenConnection.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*PGXConnector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConnectionString == "" {
		return nil, ErrEmptyConnectionString
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConfig, err)
	}
	poolCfg.MaxConns = cfg.PoolSize
	poolCfg.MinConns = cfg.MinConns
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= cfg.RetryAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		logger.WarnContext(ctx, "connector: connect attempt failed",
			slog.Int("attempt", attempt), slog.String("error", err.Error()))
		// SQLSTATE class 28 is an authorization failure: retrying with
		// the same credentials cannot succeed.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "28") {
			break
		}
		time.Sleep(time.Duration(attempt) * cfg.RetryInterval)
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenConnection, err)
	}

	return &PGXConnector{
		pool:         pool,
		cfg:          cfg,
		logger:       logger,
		broadcasters: make(map[string]*notifyBroadcaster),
	}, nil
}

// queryRetryAttempts bounds how many times Execute retries a query that
// failed with a connection-level error: pool_size+1, so every pooled
// connection gets one chance before the connector declares the database
// unreachable.
func (c *PGXConnector) queryRetryAttempts() int {
	return int(c.cfg.PoolSize) + 1
}

func (c *PGXConnector) Execute(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	var rows pgx.Rows
	var err error
	for attempt := 1; attempt <= c.queryRetryAttempts(); attempt++ {
		rows, err = c.pool.Query(ctx, sql, args...)
		if err == nil || !isConnectionError(err) {
			return rows, err
		}
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	return nil, errors.Join(pgqueue.ConnectorError, err)
}

func (c *PGXConnector) ExecuteRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.pool.QueryRow(ctx, sql, args...)
}

func (c *PGXConnector) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return errors.Join(pgqueue.ConnectorError, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Join(pgqueue.ConnectorError, err)
	}
	return nil
}

// Pool exposes the underlying pgxpool.Pool for callers that must bridge to
// database/sql (goose migrations) or need driver-level access the
// Connector interface deliberately does not expose.
func (c *PGXConnector) Pool() *pgxpool.Pool {
	return c.pool
}

func (c *PGXConnector) Close() {
	for _, b := range c.broadcasters {
		b.close()
	}
	c.pool.Close()
}

// isConnectionError distinguishes a transient connection/protocol failure
// (retry) from a query-level failure such as a constraint violation
// (propagate immediately — the Connector never interprets SQL errors).
// pgx has no single sentinel for "connection broke mid-query"; a closed
// pool and an acquire timeout are the two shapes that actually happen in
// practice, so those are the only ones retried.
func isConnectionError(err error) bool {
	return errors.Is(err, puddle.ErrClosedPool) || errors.Is(err, context.DeadlineExceeded)
}
