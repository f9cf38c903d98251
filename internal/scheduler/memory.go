package scheduler

import (
	"context"
	"sync"
	"time"
)

// MemoryScheduler dispatches tasks in-process after their delay. It
// substitutes for the Redis queue in tests and single-node deployments.
type MemoryScheduler struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	timers   []*time.Timer
	stopped  bool
}

// NewMemory creates an in-process scheduler.
func NewMemory() *MemoryScheduler {
	return &MemoryScheduler{handlers: make(map[string]Handler)}
}

// Register installs the handler for a task kind.
func (s *MemoryScheduler) Register(kind string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

func (s *MemoryScheduler) Enqueue(_ context.Context, task Task, _ string, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}

	timer := time.AfterFunc(delay, func() {
		s.mu.RLock()
		handler, ok := s.handlers[task.Kind]
		stopped := s.stopped
		s.mu.RUnlock()

		if !ok || stopped {
			return
		}
		// Detached context: the enqueueing request has long since returned.
		_ = handler(context.Background(), task)
	})
	s.timers = append(s.timers, timer)
	return nil
}

// Stop cancels all pending timers.
func (s *MemoryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

var _ Scheduler = (*MemoryScheduler)(nil)
