package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgqueue/pgqueue/connector"
)

func newHealthchecksCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "healthchecks",
		Short: "Check connectivity to the database",
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

			check := connector.Healthcheck(conn)
			if err := check(ctx); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}
