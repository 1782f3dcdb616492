package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgqueue/pgqueue"
)

// newShellCmd opens a minimal REPL over the job table: list jobs, and
// cancel a todo job, enough to triage a stuck queue without reaching for
// psql.
func newShellCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell for inspecting jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := flags.logger()

			conn, s, err := connectAndOpenStore(ctx, flags, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			fmt.Println("pgqueue shell — commands: list [queue] [status], cancel ID, quit")
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return nil
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				fields := strings.Fields(line)

				switch fields[0] {
				case "quit", "exit":
					return nil
				case "list":
					queue, status := "", pgqueue.Status("")
					if len(fields) > 1 {
						queue = fields[1]
					}
					if len(fields) > 2 {
						status = pgqueue.Status(fields[2])
					}
					jobs, err := s.ListJobs(ctx, queue, status)
					if err != nil {
						fmt.Fprintln(os.Stderr, err)
						continue
					}
					for _, j := range jobs {
						fmt.Printf("%d\t%s\t%s\t%s\tattempts=%d\n", j.ID, j.Queue, j.TaskName, j.Status, j.Attempts)
					}
				case "cancel":
					if len(fields) != 2 {
						fmt.Fprintln(os.Stderr, "usage: cancel ID")
						continue
					}
					var id int64
					if _, err := fmt.Sscanf(fields[1], "%d", &id); err != nil {
						fmt.Fprintln(os.Stderr, "invalid job id")
						continue
					}
					if err := s.Cancel(ctx, id); err != nil {
						fmt.Fprintln(os.Stderr, err)
					}
				default:
					fmt.Fprintf(os.Stderr, "unknown command %q\n", fields[0])
				}
			}
		},
	}
}
