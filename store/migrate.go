package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pgqueue/pgqueue/store/migrations"
)

var ErrFailedToApplyMigrations = errors.New("store: failed to apply migrations")

// Migrate applies the embedded schema migrations against pool. Goose needs
// a database/sql.DB, so the pgx pool is bridged with
// pgx/v5/stdlib.OpenDBFromPool rather than opened a second time.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			logger.ErrorContext(ctx, "store: failed to close migration bridge", slog.String("error", err.Error()))
		}
	}(db)

	goose.SetLogger(newGooseLogAdapter(logger))
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

type gooseLogAdapter struct {
	log *slog.Logger
}

func newGooseLogAdapter(log *slog.Logger) goose.Logger {
	return &gooseLogAdapter{log: log}
}

func (a *gooseLogAdapter) Fatalf(format string, v ...any) {
	a.log.Error(fmt.Sprintf(format, v...))
}

func (a *gooseLogAdapter) Printf(format string, v ...any) {
	a.log.Info(fmt.Sprintf(format, v...))
}
