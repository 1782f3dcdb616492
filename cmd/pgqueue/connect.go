package main

import (
	"context"
	"log/slog"

	"github.com/pgqueue/pgqueue/connector"
	"github.com/pgqueue/pgqueue/store"
)

// connectAndOpenStore opens a Connector against flags' database URL,
// applies pending migrations, and wraps the connection in a Store. Callers
// own closing the returned connector.
func connectAndOpenStore(ctx context.Context, flags *rootFlags, logger *slog.Logger) (*connector.PGXConnector, *store.Store, error) {
	dsn, err := flags.resolveDatabaseURL()
	if err != nil {
		return nil, nil, err
	}

	conn, err := connector.Connect(ctx, connector.Config{ConnectionString: dsn}, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(ctx, conn.Pool(), logger); err != nil {
		conn.Close()
		return nil, nil, err
	}

	s, err := store.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, s, nil
}
