package feed

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/johnrirwin/streamforge/internal/cache"
	"github.com/johnrirwin/streamforge/internal/metrics"
	"github.com/johnrirwin/streamforge/internal/models"
	"github.com/johnrirwin/streamforge/internal/scheduler"
	"github.com/johnrirwin/streamforge/internal/testutil"
)

// captureScheduler records enqueued tasks instead of running them.
type captureScheduler struct {
	mu     sync.Mutex
	tasks  []scheduler.Task
	lanes  []string
	delays []time.Duration
}

func (c *captureScheduler) Enqueue(_ context.Context, task scheduler.Task, lane string, delay time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, task)
	c.lanes = append(c.lanes, lane)
	c.delays = append(c.delays, delay)
	return nil
}

func (c *captureScheduler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func newTestFeedCache(t *testing.T) (*FeedCache, *cache.MemoryStore, *captureScheduler) {
	t.Helper()
	store := cache.NewMemory()
	t.Cleanup(store.Stop)

	sched := &captureScheduler{}
	fc := NewFeedCache(store, sched, metrics.NewUnregistered(), testutil.NullLogger())
	t.Cleanup(fc.Stop)
	return fc, store, sched
}

func TestFeedCache_PutGet(t *testing.T) {
	fc, _, _ := newTestFeedCache(t)
	ctx := context.Background()

	batch := []models.Video{
		testVideo("v1", "alice", time.Hour),
		testVideo("v2", "bob", 2*time.Hour),
	}
	key := batchKey("u1", models.FeedMixed, "tok12345")

	if err := fc.Put(ctx, key, batch); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := fc.Get(ctx, key, models.FeedMixed)
	if !ok {
		t.Fatal("Get() miss after Put()")
	}
	if len(got) != 2 || got[0].ID != "v1" || got[1].ID != "v2" {
		t.Errorf("Get() = %v, want the stored batch", models.VideoIDs(got))
	}
}

func TestFeedCache_MissOnAbsent(t *testing.T) {
	fc, _, _ := newTestFeedCache(t)

	if _, ok := fc.Get(context.Background(), batchKey("u1", models.FeedMixed, "tok12345"), models.FeedMixed); ok {
		t.Error("Get() hit on an absent key")
	}
}

func TestFeedCache_DiscardsInvalidEntries(t *testing.T) {
	fc, store, _ := newTestFeedCache(t)
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
	}{
		{"corrupt", []byte("{not json")},
		{"empty batch", []byte("[]")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := batchKey("u1", models.FeedMixed, tt.name)
			if err := store.Set(ctx, key, tt.data, time.Minute); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			if _, ok := fc.Get(ctx, key, models.FeedMixed); ok {
				t.Fatal("Get() hit on an invalid entry")
			}
			if _, ok, _ := store.Get(ctx, key); ok {
				t.Error("invalid entry not discarded from the store")
			}
		})
	}
}

func TestFeedCache_ScheduleRefresh(t *testing.T) {
	fc, _, sched := newTestFeedCache(t)
	ctx := context.Background()

	fc.ScheduleRefresh(ctx, "u1", models.FeedMixed, 20, []string{"v1", "v2"})
	if sched.count() != 1 {
		t.Fatalf("scheduled %d tasks, want 1", sched.count())
	}

	task := sched.tasks[0]
	if task.Kind != TaskKindFeedRefresh {
		t.Errorf("task kind = %q, want %q", task.Kind, TaskKindFeedRefresh)
	}
	if sched.lanes[0] != scheduler.LaneLow {
		t.Errorf("task lane = %q, want %q", sched.lanes[0], scheduler.LaneLow)
	}
	if d := sched.delays[0]; d < refreshMinDelay || d > refreshMaxDelay {
		t.Errorf("task delay = %v, want within [%v, %v]", d, refreshMinDelay, refreshMaxDelay)
	}

	var payload RefreshPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		t.Fatalf("payload decode error = %v", err)
	}
	if payload.UserID != "u1" || payload.FeedType != models.FeedMixed || payload.Limit != 20 {
		t.Errorf("payload = %+v, want user u1, mixed feed, limit 20", payload)
	}
	if len(payload.CurrentIDs) != 2 {
		t.Errorf("payload carries %d current IDs, want 2", len(payload.CurrentIDs))
	}
}

func TestFeedCache_ScheduleRefresh_DeduplicatesInFlight(t *testing.T) {
	fc, _, sched := newTestFeedCache(t)
	ctx := context.Background()

	fc.ScheduleRefresh(ctx, "u1", models.FeedMixed, 20, nil)
	fc.ScheduleRefresh(ctx, "u1", models.FeedMixed, 20, nil)
	if sched.count() != 1 {
		t.Errorf("scheduled %d tasks for the same user and feed type, want 1", sched.count())
	}

	// A different feed type is a separate flight.
	fc.ScheduleRefresh(ctx, "u1", models.FeedSport, 20, nil)
	if sched.count() != 2 {
		t.Errorf("scheduled %d tasks across feed types, want 2", sched.count())
	}
}

func TestFeedCache_InvalidateUser(t *testing.T) {
	fc, _, _ := newTestFeedCache(t)
	ctx := context.Background()

	batch := []models.Video{testVideo("v1", "alice", time.Hour)}
	mixedKey := batchKey("u1", models.FeedMixed, "tok11111")
	sportKey := batchKey("u1", models.FeedSport, "tok22222")
	otherKey := batchKey("u2", models.FeedMixed, "tok33333")
	for _, key := range []string{mixedKey, sportKey, otherKey} {
		if err := fc.Put(ctx, key, batch); err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}

	if err := fc.InvalidateUser(ctx, "u1"); err != nil {
		t.Fatalf("InvalidateUser() error = %v", err)
	}

	if _, ok := fc.Get(ctx, mixedKey, models.FeedMixed); ok {
		t.Error("mixed batch survived invalidation")
	}
	if _, ok := fc.Get(ctx, sportKey, models.FeedSport); ok {
		t.Error("sport batch survived invalidation")
	}
	if _, ok := fc.Get(ctx, otherKey, models.FeedMixed); !ok {
		t.Error("invalidation removed another user's batch")
	}
}
