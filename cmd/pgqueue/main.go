// Command pgqueue is the thin operational shell around the pgqueue core:
// run a worker process, defer a one-off job, apply schema migrations,
// check connectivity, or open an interactive shell against the job table.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
