package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgqueue/pgqueue"
	"github.com/pgqueue/pgqueue/worker"
)

func newWorkerCmd(flags *rootFlags) *cobra.Command {
	var (
		queues      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a worker process that fetches and executes jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := flags.logger()

			conn, s, err := connectAndOpenStore(ctx, flags, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			// A bare pgqueue binary has no application-specific task
			// handlers to register; an embedding application builds its
			// own main with its own Registry and calls worker.New
			// directly. This command still runs the janitor and serves
			// as a connectivity smoke test.
			registry := pgqueue.NewRegistry().Seal()

			var cfg worker.Config
			if err := pgqueue.LoadConfig(&cfg); err != nil {
				return err
			}
			opts := []worker.Option{
				worker.WithLogger(logger),
				worker.WithNotifier(conn),
				worker.WithConcurrency(cfg.Concurrency),
				worker.WithPollingInterval(cfg.PollingInterval),
				worker.WithShutdownTimeout(cfg.ShutdownTimeout),
				worker.WithHeartbeatInterval(cfg.HeartbeatInterval),
				worker.WithHeartbeatTimeout(cfg.HeartbeatTimeout),
				worker.WithJanitorInterval(cfg.JanitorInterval),
			}
			if queues != "" {
				opts = append(opts, worker.WithQueues(strings.Split(queues, ",")...))
			}
			if concurrency > 0 {
				opts = append(opts, worker.WithConcurrency(concurrency))
			}

			w, err := worker.New(s, registry, opts...)
			if err != nil {
				return err
			}

			logger.Info("starting worker", slog.String("worker_id", w.ID().String()))
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&queues, "queues", "", "comma-separated list of queues to serve (default: all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent sub-workers (default: 5)")
	return cmd
}
