package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnrirwin/streamforge/internal/logging"
)

// RedisScheduler stores delayed tasks in per-lane Redis sorted sets,
// scored by the unix time they become due.
type RedisScheduler struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed scheduler.
func NewRedis(client *redis.Client, prefix string) *RedisScheduler {
	if prefix == "" {
		prefix = "streamforge:"
	}
	return &RedisScheduler{client: client, prefix: prefix}
}

func (s *RedisScheduler) laneKey(lane string) string {
	return s.prefix + "tasks:" + lane
}

func (s *RedisScheduler) Enqueue(ctx context.Context, task Task, lane string, delay time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	readyAt := time.Now().Add(delay)
	if err := s.client.ZAdd(ctx, s.laneKey(lane), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue task %s: %w", task.ID, err)
	}
	return nil
}

var _ Scheduler = (*RedisScheduler)(nil)

// Worker polls the sorted-set lanes and dispatches due tasks to
// registered handlers. A task is removed before dispatch; if the worker
// dies mid-handler the task is lost, which is acceptable for idempotent
// cache-refresh work that the read path re-schedules anyway.
type Worker struct {
	sched    *RedisScheduler
	lanes    []string
	handlers map[string]Handler
	interval time.Duration
	logger   *logging.Logger
}

// NewWorker creates a worker polling the given lanes.
func NewWorker(sched *RedisScheduler, lanes []string, logger *logging.Logger) *Worker {
	return &Worker{
		sched:    sched,
		lanes:    lanes,
		handlers: make(map[string]Handler),
		interval: time.Second,
		logger:   logger,
	}
}

// Register installs the handler for a task kind. Not safe to call after Run.
func (w *Worker) Register(kind string, h Handler) {
	w.handlers[kind] = h
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, lane := range w.lanes {
				w.drainLane(ctx, lane)
			}
		}
	}
}

func (w *Worker) drainLane(ctx context.Context, lane string) {
	key := w.sched.laneKey(lane)
	now := time.Now().UnixMilli()

	members, err := w.sched.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now),
		Count: 10,
	}).Result()
	if err != nil {
		w.logger.Warn("Failed to poll task lane",
			logging.WithField("lane", lane),
			logging.WithField("error", err.Error()))
		return
	}

	for _, member := range members {
		// ZRem returning 0 means another worker claimed this task first.
		removed, err := w.sched.client.ZRem(ctx, key, member).Result()
		if err != nil || removed == 0 {
			continue
		}
		w.dispatch(ctx, lane, []byte(member))
	}
}

func (w *Worker) dispatch(ctx context.Context, lane string, data []byte) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		w.logger.Error("Discarding undecodable task",
			logging.WithField("lane", lane),
			logging.WithField("error", err.Error()))
		return
	}

	handler, ok := w.handlers[task.Kind]
	if !ok {
		w.logger.Warn("No handler for task kind",
			logging.WithField("kind", task.Kind))
		return
	}

	if err := handler(ctx, task); err != nil {
		w.logger.Warn("Task handler failed", logging.WithFields(map[string]interface{}{
			"kind":  task.Kind,
			"task":  task.ID,
			"error": err.Error(),
		}))
	}
}
