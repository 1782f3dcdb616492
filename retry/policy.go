// Package retry implements the Worker's retry policy: a pure function of
// (attempts so far, error) that returns either "do not retry" or a delay
// before the next attempt.
package retry

import (
	"errors"
	"math/rand"
	"time"
)

// Policy decides what happens to a job whose handler returned err, having
// already been attempted attempt times (1-based: attempt is the count
// including the failure just reported). retry=false means finish as
// failed; retry=true means finish as retry(now+delay).
type Policy func(attempt int, err error) (delay time.Duration, retry bool)

// Backoff is the shape of a function computing the raw (pre-jitter) delay
// for a given 1-based attempt number.
type Backoff func(attempt int) time.Duration

// Fixed always waits d, regardless of attempt.
func Fixed(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Linear waits base*attempt.
func Linear(base time.Duration) Backoff {
	return func(attempt int) time.Duration { return base * time.Duration(attempt) }
}

// Exponential waits base*2^(attempt-1).
func Exponential(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return base << (attempt - 1)
	}
}

// WithJitter wraps a Backoff to add up to +/-frac of the computed delay,
// spreading out retries that would otherwise wake up in lockstep.
func WithJitter(b Backoff, frac float64) Backoff {
	return func(attempt int) time.Duration {
		d := b(attempt)
		jitter := float64(d) * frac * (rand.Float64()*2 - 1)
		return d + time.Duration(jitter)
	}
}

// New builds a Policy from a Backoff, a maximum attempt count (inclusive —
// the attempt at which the policy stops retrying), and an optional
// allow-list of retryable error kinds. An empty allow-list means every
// error is retryable up to maxAttempts.
func New(backoff Backoff, maxAttempts int, retryable ...error) Policy {
	return func(attempt int, err error) (time.Duration, bool) {
		if attempt >= maxAttempts {
			return 0, false
		}
		if len(retryable) > 0 && !matchesAny(err, retryable) {
			return 0, false
		}
		return backoff(attempt), true
	}
}

func matchesAny(err error, kinds []error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// Never never retries; every failure finishes as failed on the first
// attempt. Useful for tasks that are not safe to re-run.
func Never() Policy {
	return func(int, error) (time.Duration, bool) { return 0, false }
}
