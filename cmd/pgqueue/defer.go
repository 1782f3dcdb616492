package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgqueue/pgqueue"
	"github.com/pgqueue/pgqueue/store"
)

func newDeferCmd(flags *rootFlags) *cobra.Command {
	var (
		queue        string
		queueingLock string
	)

	cmd := &cobra.Command{
		Use:   "defer TASK [ARGS_JSON]",
		Short: "Enqueue a single job",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := flags.logger()

			conn, s, err := connectAndOpenStore(ctx, flags, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			task := args[0]
			payload := json.RawMessage("{}")
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("pgqueue: args is not valid JSON: %s", args[1])
				}
				payload = json.RawMessage(args[1])
			}

			if queue == "" {
				queue = pgqueue.DefaultQueue
			}

			id, err := deferJob(ctx, s, queue, task, payload, queueingLock)
			if err != nil {
				return err
			}

			fmt.Printf("deferred job %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&queue, "queue", "", "queue to enqueue into (default: \"default\")")
	cmd.Flags().StringVar(&queueingLock, "queueing-lock", "", "reject the defer if a job with this lock is still todo or doing")
	return cmd
}

func deferJob(ctx context.Context, s *store.Store, queue, task string, payload json.RawMessage, queueingLock string) (int64, error) {
	var opts []store.DeferOption
	if queueingLock != "" {
		opts = append(opts, store.WithQueueingLock(queueingLock))
	}
	return s.Defer(ctx, queue, task, payload, opts...)
}
