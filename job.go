package pgqueue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a Job row.
type Status string

const (
	StatusTodo      Status = "todo"
	StatusDoing     Status = "doing"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is one unit of work: a task name plus arguments, plus the bookkeeping
// the store needs to fetch, retry, and finish it exactly as the database
// row describes it. The ID is assigned by the store on insert and is
// immutable afterward.
type Job struct {
	ID           int64
	Queue        string
	TaskName     string
	Args         json.RawMessage
	Status       Status
	ScheduledAt  *time.Time
	QueueingLock string
	Attempts     int
	LockedBy     *uuid.UUID
	HeartbeatAt  *time.Time
}

// DefaultQueue is used when a caller defers a job without naming a queue.
const DefaultQueue = "default"
