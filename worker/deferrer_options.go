package worker

import (
	"log/slog"
	"time"
)

// DeferrerOption is a functional option for configuring a Deferrer.
type DeferrerOption func(*deferrerOptions)

type deferrerOptions struct {
	checkInterval time.Duration
	maxLookback   time.Duration
	logger        *slog.Logger
}

func defaultDeferrerOptions() *deferrerOptions {
	return &deferrerOptions{
		checkInterval: 30 * time.Second,
		maxLookback:   time.Minute,
		logger:        slog.Default(),
	}
}

// WithCheckInterval sets how often the deferrer evaluates its periodic
// tasks against the clock.
func WithCheckInterval(d time.Duration) DeferrerOption {
	return func(o *deferrerOptions) {
		if d > 0 {
			o.checkInterval = d
		}
	}
}

// WithMaxLookback bounds how far back LatestSlot searches for a match
// before giving up. The default is one slot (a minute); deep backfill of
// missed cron runs is out of scope.
func WithMaxLookback(d time.Duration) DeferrerOption {
	return func(o *deferrerOptions) {
		if d > 0 {
			o.maxLookback = d
		}
	}
}

// WithDeferrerLogger sets the deferrer's logger.
func WithDeferrerLogger(logger *slog.Logger) DeferrerOption {
	return func(o *deferrerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
