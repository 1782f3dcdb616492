// Package migrations embeds the goose migration files that create the
// procrastinate_jobs, procrastinate_periodic_defers, and
// procrastinate_events tables and the NOTIFY trigger.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
