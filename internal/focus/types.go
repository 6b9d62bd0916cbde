package focus

import (
	"errors"
	"fmt"
	"time"
)

// Priority defines the urgency band of a task (lower runs first)
type Priority int

const (
	P0Critical    Priority = 0 // Safety actions (laser off) - ahead of everything
	P1UserInput   Priority = 1 // Voice/text commands - high priority
	P2DueTask     Priority = 2 // Ticks, due reminders - medium-high
	P3ActiveWork  Priority = 3 // Follow-up work for an active request - medium
	P4Exploration Priority = 4 // Vision scans, housekeeping - idle only
)

// String returns a string representation of Priority
func (p Priority) String() string {
	switch p {
	case P0Critical:
		return "P0:Critical"
	case P1UserInput:
		return "P1:UserInput"
	case P2DueTask:
		return "P2:DueTask"
	case P3ActiveWork:
		return "P3:ActiveWork"
	case P4Exploration:
		return "P4:Exploration"
	default:
		return fmt.Sprintf("P%d", int(p))
	}
}

// Action is a unit of side-effecting work run by the worker
type Action func() error

// Task is a queued action. It is owned by the queue until popped and is
// dropped after it runs; tasks are never retried.
type Task struct {
	Priority   Priority
	EnqueuedAt time.Time
	Name       string // for logs only
	Action     Action

	seq uint64 // submission order, breaks priority ties
}

// Seq returns the submission sequence number assigned by the queue
func (t *Task) Seq() uint64 {
	return t.seq
}

// ErrQueueFull is returned by Push when a bounded queue is at capacity
var ErrQueueFull = errors.New("task queue full")

// TaskExecutionError wraps a failure (error or panic) raised by a task
type TaskExecutionError struct {
	Task     string
	Priority Priority
	Err      error
}

func (e *TaskExecutionError) Error() string {
	name := e.Task
	if name == "" {
		name = "task"
	}
	return fmt.Sprintf("%s (%s) failed: %v", name, e.Priority, e.Err)
}

func (e *TaskExecutionError) Unwrap() error {
	return e.Err
}
