package domain

import (
	"context"
	"time"
)

// TaskEvent describes the lifecycle of one task execution for observers.
type TaskEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id"`
	Name      string        `json:"name"`
	Kind      Kind          `json:"kind"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// Hooks defines optional callbacks for engine observability. Nil fields
// are skipped. Hooks run synchronously on the executing goroutine and must
// not block.
type Hooks struct {
	OnTaskStart func(context.Context, *TaskEvent)
	OnTaskEnd   func(context.Context, *TaskEvent)
	OnTaskError func(context.Context, *TaskEvent)
}
