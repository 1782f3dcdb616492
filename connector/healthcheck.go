package connector

import (
	"context"
	"errors"
)

// Healthcheck returns a closure validating database connectivity, for
// wiring into a process health-check endpoint or the "healthchecks" CLI
// command.
func Healthcheck(c *PGXConnector) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := c.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
