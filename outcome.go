package pgqueue

import "time"

// outcomeKind is the result a handler produced for a fetched job.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeFailure
	outcomeRetry
)

// Outcome is what Finish commits for a job that was doing. Build one with
// Success, Failure, or Retry.
type Outcome struct {
	kind        outcomeKind
	nextAttempt time.Time
}

// Success finishes the job as succeeded.
func Success() Outcome { return Outcome{kind: outcomeSuccess} }

// Failure finishes the job as failed, attempts incremented, no further
// retry.
func Failure() Outcome { return Outcome{kind: outcomeFailure} }

// Retry reopens the job as todo with scheduled_at set to at, attempts
// incremented.
func Retry(at time.Time) Outcome { return Outcome{kind: outcomeRetry, nextAttempt: at} }

func (o Outcome) IsSuccess() bool { return o.kind == outcomeSuccess }
func (o Outcome) IsFailure() bool { return o.kind == outcomeFailure }
func (o Outcome) IsRetry() bool   { return o.kind == outcomeRetry }

// At is the scheduled_at value for a Retry outcome; it is meaningless for
// Success/Failure.
func (o Outcome) At() time.Time { return o.nextAttempt }
