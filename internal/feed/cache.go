package feed

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/johnrirwin/streamforge/internal/cache"
	"github.com/johnrirwin/streamforge/internal/logging"
	"github.com/johnrirwin/streamforge/internal/metrics"
	"github.com/johnrirwin/streamforge/internal/models"
	"github.com/johnrirwin/streamforge/internal/scheduler"
)

const (
	// batchTTL applies to every batch write, miss path and refresh path
	// alike. One policy, no split TTLs.
	batchTTL = 5 * time.Minute
	// localBatchTTL keeps the in-process tier short-lived so the
	// distributed TTL stays authoritative.
	localBatchTTL = 30 * time.Second
	// refreshFlagTTL bounds how long a scheduled refresh suppresses
	// duplicates for the same user/feed-type pair.
	refreshFlagTTL = time.Minute

	refreshMinDelay = 10 * time.Second
	refreshMaxDelay = 20 * time.Second

	// TaskKindFeedRefresh names the background regeneration task.
	TaskKindFeedRefresh = "feed.refresh"
)

// RefreshPayload is the task payload for a background feed refresh.
type RefreshPayload struct {
	UserID     string          `json:"userId"`
	FeedType   models.FeedType `json:"feedType"`
	Limit      int             `json:"limit"`
	CurrentIDs []string        `json:"currentIds,omitempty"`
}

// FeedCache stores ranked feed batches in a small in-process tier
// backed by the distributed store, and schedules background batch
// regeneration on the low-priority task lane.
type FeedCache struct {
	local   *cache.MemoryStore
	remote  cache.Store
	sched   scheduler.Scheduler
	metrics *metrics.FeedMetrics
	logger  *logging.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFeedCache creates a feed cache over the given distributed store.
func NewFeedCache(remote cache.Store, sched scheduler.Scheduler, m *metrics.FeedMetrics, logger *logging.Logger) *FeedCache {
	return &FeedCache{
		local:   cache.NewMemory(),
		remote:  remote,
		sched:   sched,
		metrics: m,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Get returns the cached batch for key. Empty or undecodable entries
// are discarded and reported as a miss.
func (c *FeedCache) Get(ctx context.Context, key string, feedType models.FeedType) ([]models.Video, bool) {
	start := time.Now()
	videos, ok := c.lookup(ctx, key)
	c.metrics.CacheGetDuration.Observe(time.Since(start).Seconds())

	if ok {
		c.metrics.CacheHits.WithLabelValues(string(feedType)).Inc()
	} else {
		c.metrics.CacheMisses.WithLabelValues(string(feedType)).Inc()
	}
	return videos, ok
}

func (c *FeedCache) lookup(ctx context.Context, key string) ([]models.Video, bool) {
	if data, ok, _ := c.local.Get(ctx, key); ok {
		if videos := decodeBatch(data); len(videos) > 0 {
			return videos, true
		}
		_ = c.local.Delete(ctx, key)
	}

	data, ok, err := c.remote.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Feed cache read failed",
			logging.WithField("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	videos := decodeBatch(data)
	if len(videos) == 0 {
		// Stale or corrupt entry; drop it so the miss path repopulates.
		if err := c.remote.Delete(ctx, key); err != nil {
			c.logger.Warn("Failed to discard invalid cached batch",
				logging.WithField("error", err.Error()))
		}
		return nil, false
	}

	if err := c.local.Set(ctx, key, data, localBatchTTL); err == nil {
		return videos, true
	}
	return videos, true
}

// Put stores a batch in both tiers.
func (c *FeedCache) Put(ctx context.Context, key string, videos []models.Video) error {
	data, err := json.Marshal(videos)
	if err != nil {
		return err
	}
	if err := c.remote.Set(ctx, key, data, batchTTL); err != nil {
		return err
	}
	_ = c.local.Set(ctx, key, data, localBatchTTL)
	return nil
}

// ScheduleRefresh enqueues a low-priority batch regeneration with a
// randomized near-future delay, unless one is already in flight for
// this user and feed type. The flag only prevents duplicate scheduling;
// duplicate execution is harmless because regeneration is idempotent.
func (c *FeedCache) ScheduleRefresh(ctx context.Context, userID string, feedType models.FeedType, limit int, currentIDs []string) {
	acquired, err := c.remote.SetNX(ctx, refreshFlagKey(userID, feedType), []byte("1"), refreshFlagTTL)
	if err != nil {
		c.logger.Warn("Refresh flag check failed",
			logging.WithField("error", err.Error()))
		return
	}
	if !acquired {
		c.metrics.RefreshSkipped.Inc()
		return
	}

	task, err := scheduler.NewTask(TaskKindFeedRefresh, RefreshPayload{
		UserID:     userID,
		FeedType:   feedType,
		Limit:      limit,
		CurrentIDs: currentIDs,
	})
	if err != nil {
		c.logger.Error("Failed to build refresh task",
			logging.WithField("error", err.Error()))
		return
	}

	if err := c.sched.Enqueue(ctx, task, scheduler.LaneLow, c.refreshDelay()); err != nil {
		c.logger.Warn("Failed to enqueue refresh task", logging.WithFields(map[string]interface{}{
			"user":     userID,
			"feedType": string(feedType),
			"error":    err.Error(),
		}))
		return
	}
	c.metrics.RefreshScheduled.Inc()
}

// InvalidateUser removes every cached batch for the user, all feed
// types and session tokens, from both tiers.
func (c *FeedCache) InvalidateUser(ctx context.Context, userID string) error {
	pattern := userBatchPattern(userID)
	if err := c.local.DeletePattern(ctx, pattern); err != nil {
		return err
	}
	return c.remote.DeletePattern(ctx, pattern)
}

// Stop releases the local tier's background resources.
func (c *FeedCache) Stop() {
	c.local.Stop()
}

func (c *FeedCache) refreshDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return refreshMinDelay + time.Duration(c.rng.Int63n(int64(refreshMaxDelay-refreshMinDelay)))
}

func decodeBatch(data []byte) []models.Video {
	var videos []models.Video
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil
	}
	return videos
}
