// Package scheduler provides a deferred task queue with at-least-once,
// fire-and-forget semantics. Producers enqueue a task descriptor onto a
// named lane with a delay; a Worker polls lanes and dispatches due tasks
// to registered handlers. Duplicate execution must be harmless.
package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lane names. Low is for work that must never compete with request-path
// operations (feed cache refreshes).
const (
	LaneDefault = "default"
	LaneLow     = "low"
)

// Task is a serializable unit of deferred work.
type Task struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewTask builds a task with a fresh ID and a JSON-encoded payload.
func NewTask(kind string, payload interface{}) (Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Task{}, err
	}
	return Task{
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: data,
	}, nil
}

// Handler processes one task kind.
type Handler func(ctx context.Context, task Task) error

// Scheduler enqueues deferred tasks.
type Scheduler interface {
	// Enqueue schedules task on lane after the given delay.
	Enqueue(ctx context.Context, task Task, lane string, delay time.Duration) error
}
