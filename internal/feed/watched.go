package feed

import (
	"context"
	"fmt"

	"github.com/johnrirwin/streamforge/internal/cache"
)

// watchedSetCap bounds the per-user watched set. When the cap is
// exceeded an arbitrary member is evicted; exact recency doesn't matter
// here, only bounded memory.
const watchedSetCap = 500

// WatchedSetTracker records recently watched video IDs per user in a
// capped set. The feed engine excludes these from primary candidates
// and reuses them as a fallback pool.
type WatchedSetTracker struct {
	store cache.Store
	cap   int64
}

// NewWatchedSetTracker creates a tracker over the given store.
func NewWatchedSetTracker(store cache.Store) *WatchedSetTracker {
	return &WatchedSetTracker{store: store, cap: watchedSetCap}
}

// MarkWatched adds videoID to the user's watched set, evicting
// arbitrary members while the set exceeds its cap.
func (t *WatchedSetTracker) MarkWatched(ctx context.Context, userID, videoID string) error {
	key := watchedKey(userID)

	if err := t.store.SetAdd(ctx, key, videoID); err != nil {
		return fmt.Errorf("mark watched: %w", err)
	}

	card, err := t.store.SetCard(ctx, key)
	if err != nil {
		return fmt.Errorf("watched cardinality: %w", err)
	}
	for card > t.cap {
		if _, err := t.store.SetPop(ctx, key); err != nil {
			return fmt.Errorf("evict watched: %w", err)
		}
		card--
	}
	return nil
}

// Watched returns the user's current watched video IDs.
func (t *WatchedSetTracker) Watched(ctx context.Context, userID string) ([]string, error) {
	members, err := t.store.SetMembers(ctx, watchedKey(userID))
	if err != nil {
		return nil, fmt.Errorf("fetch watched set: %w", err)
	}
	return members, nil
}
