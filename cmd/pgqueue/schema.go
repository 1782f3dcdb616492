package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgqueue/pgqueue/connector"
	"github.com/pgqueue/pgqueue/store"
)

func newSchemaCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "schema", Short: "Manage the job store schema"}

	apply := &cobra.Command{
		Use:   "apply",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := flags.logger()

			dsn, err := flags.resolveDatabaseURL()
			if err != nil {
				return err
			}
			conn, err := connector.Connect(ctx, connector.Config{ConnectionString: dsn}, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := store.Migrate(ctx, conn.Pool(), logger); err != nil {
				return err
			}
			fmt.Println("schema is up to date")
			return nil
		},
	}

	cmd.AddCommand(apply)

	var applyFlag bool
	cmd.Flags().BoolVar(&applyFlag, "apply", false, "apply pending migrations (same as the apply subcommand)")
	cmd.RunE = func(c *cobra.Command, args []string) error {
		if !applyFlag {
			return c.Help()
		}
		return apply.RunE(c, args)
	}
	return cmd
}
