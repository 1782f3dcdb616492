package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pgqueue/pgqueue"
	"github.com/pgqueue/pgqueue/connector"
)

// rootFlags holds the persistent flags shared by every subcommand. No
// business logic lives here or in any subcommand file; each builds a
// Connector/Store/Worker from these flags and calls straight into the
// core packages.
type rootFlags struct {
	databaseURL string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "pgqueue",
		Short: "A PostgreSQL-backed task queue",
	}

	cmd.PersistentFlags().StringVar(&flags.databaseURL, "database-url", "", "PostgreSQL connection string (env PGQUEUE_DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "json", "log output format: json or text")

	cmd.AddCommand(
		newWorkerCmd(flags),
		newDeferCmd(flags),
		newSchemaCmd(flags),
		newHealthchecksCmd(flags),
		newShellCmd(flags),
	)
	return cmd
}

func (f *rootFlags) logger() *slog.Logger {
	format := pgqueue.LogFormatJSON
	if f.logFormat == "text" {
		format = pgqueue.LogFormatText
	}
	return pgqueue.NewLogger(pgqueue.WithLogFormat(format))
}

func (f *rootFlags) resolveDatabaseURL() (string, error) {
	if f.databaseURL != "" {
		return f.databaseURL, nil
	}
	var cfg struct {
		DatabaseURL string `env:"PGQUEUE_DATABASE_URL"`
	}
	if err := pgqueue.LoadConfig(&cfg); err != nil {
		return "", err
	}
	if cfg.DatabaseURL == "" {
		return "", connector.ErrEmptyConnectionString
	}
	return cfg.DatabaseURL, nil
}
