package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/johnrirwin/streamforge/internal/logging"
	"github.com/johnrirwin/streamforge/internal/metrics"
	"github.com/johnrirwin/streamforge/internal/models"
)

const (
	// maxCallerExclusions bounds the caller-supplied exclusion list so a
	// pathological client can't inflate query cost.
	maxCallerExclusions = 100
	// recycleLimit caps the last-resort requery.
	recycleLimit = 100
	// defaultTierTimeout bounds each tier's query; on deadline the
	// engine degrades to the next tier instead of blocking the request.
	defaultTierTimeout = 2 * time.Second
)

// ContentStore is the video source the candidate engine queries.
type ContentStore interface {
	QueryVideos(ctx context.Context, q models.VideoQuery) ([]models.Video, error)
	// SupportsCompositeSort reports whether the backend can evaluate raw
	// composite sort expressions. When false the engine substitutes the
	// plain trending ordering for composite variants.
	SupportsCompositeSort() bool
}

// RelationshipProvider supplies per-user blocked and followed owner sets.
type RelationshipProvider interface {
	FollowedOwners(ctx context.Context, userID string) ([]string, error)
	BlockedOwners(ctx context.Context, userID string) ([]string, error)
}

// CandidateEngine fills feed requests through progressively widening
// query tiers: unwatched first, then watched, then relaxed filters,
// then recycling. The feed is never empty while any eligible content
// exists; a repeat beats a blank feed.
type CandidateEngine struct {
	store       ContentStore
	rels        RelationshipProvider
	watched     *WatchedSetTracker
	metrics     *metrics.FeedMetrics
	logger      *logging.Logger
	tierTimeout time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCandidateEngine creates a candidate engine.
func NewCandidateEngine(store ContentStore, rels RelationshipProvider, watched *WatchedSetTracker, m *metrics.FeedMetrics, logger *logging.Logger) *CandidateEngine {
	return &CandidateEngine{
		store:       store,
		rels:        rels,
		watched:     watched,
		metrics:     m,
		logger:      logger,
		tierTimeout: defaultTierTimeout,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the random source; exposed for deterministic tests.
func (e *CandidateEngine) SetRand(rng *rand.Rand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rng
}

// SetTierTimeout overrides the per-tier query deadline.
func (e *CandidateEngine) SetTierTimeout(d time.Duration) {
	e.tierTimeout = d
}

// candidateTier is one stage of the widening policy. need is the
// remaining shortfall; selected holds IDs already chosen by earlier
// tiers.
type candidateTier struct {
	name  string
	fetch func(ctx context.Context, need int, selected []string) ([]models.Video, error)
}

// FetchCandidates returns up to limit feed candidates for the user.
// Per-tier failures are logged and absorbed; an error is returned only
// when every tier failed outright.
func (e *CandidateEngine) FetchCandidates(ctx context.Context, userID string, feedType models.FeedType, limit int, excludeIDs []string) ([]models.Video, error) {
	if limit <= 0 {
		return nil, nil
	}
	if len(excludeIDs) > maxCallerExclusions {
		excludeIDs = excludeIDs[:maxCallerExclusions]
	}

	watched := e.watchedOrEmpty(ctx, userID)
	blocked := e.relsOrEmpty(ctx, userID, e.rels.BlockedOwners, "blocked")

	var followed []string
	if feedType == models.FeedFollowing {
		followed = e.relsOrEmpty(ctx, userID, e.rels.FollowedOwners, "followed")
		if len(followed) == 0 {
			// Nothing followed means an empty following feed, not a
			// widened one.
			return nil, nil
		}
	}

	base := models.VideoQuery{
		Sport:       feedType == models.FeedSport,
		OwnersIn:    followed,
		OwnersNotIn: blocked,
	}

	tiers := []candidateTier{
		e.unwatchedTier(base, watched, excludeIDs),
		e.watchedFallbackTier(base, watched, excludeIDs),
		e.relaxedTier(base, excludeIDs),
		e.recycledTier(base),
	}

	var (
		selected []models.Video
		seen     = make(map[string]bool)
		failures int
		lastErr  error
	)

	for _, tier := range tiers {
		if len(selected) >= limit {
			break
		}

		tierCtx, cancel := context.WithTimeout(ctx, e.tierTimeout)
		videos, err := tier.fetch(tierCtx, limit-len(selected), models.VideoIDs(selected))
		cancel()
		if err != nil {
			failures++
			lastErr = err
			e.logger.Warn("Candidate tier failed, widening", logging.WithFields(map[string]interface{}{
				"tier":     tier.name,
				"feedType": string(feedType),
				"error":    err.Error(),
			}))
			continue
		}

		added := 0
		for _, v := range videos {
			if len(selected) >= limit {
				break
			}
			if seen[v.ID] || !v.FeedEligible() {
				continue
			}
			seen[v.ID] = true
			selected = append(selected, v)
			added++
		}
		if added > 0 {
			e.metrics.TierFills.WithLabelValues(tier.name).Add(float64(added))
		}
	}

	if len(selected) == 0 && failures == len(tiers) && lastErr != nil {
		return nil, fmt.Errorf("all candidate tiers failed: %w", lastErr)
	}
	return selected, nil
}

// unwatchedTier queries fresh content the user hasn't seen, ordered by
// a randomly selected scoring strategy. Fetches double the limit to
// leave the ranker room to shuffle.
func (e *CandidateEngine) unwatchedTier(base models.VideoQuery, watched, excludeIDs []string) candidateTier {
	return candidateTier{
		name: "unwatched",
		fetch: func(ctx context.Context, need int, _ []string) ([]models.Video, error) {
			q := base
			q.IDsNotIn = append(append([]string{}, watched...), excludeIDs...)
			q.Limit = need * 2
			q.Sort = e.pickSortOrder()
			return e.store.QueryVideos(ctx, q)
		},
	}
}

// watchedFallbackTier re-serves watched content when fresh content
// under-fills. Over-fetches threefold and shuffles so repeats vary.
func (e *CandidateEngine) watchedFallbackTier(base models.VideoQuery, watched, excludeIDs []string) candidateTier {
	return candidateTier{
		name: "watched",
		fetch: func(ctx context.Context, need int, selected []string) ([]models.Video, error) {
			if len(watched) == 0 {
				return nil, nil
			}
			q := base
			q.IDsIn = watched
			q.IDsNotIn = append(append([]string{}, selected...), excludeIDs...)
			q.Limit = need * 3
			q.Sort = models.SortTrending
			videos, err := e.store.QueryVideos(ctx, q)
			if err != nil {
				return nil, err
			}
			e.shuffleVideos(videos)
			return head(videos, need), nil
		},
	}
}

// relaxedTier drops the watched distinction entirely and widens in
// three steps: honor exclusions, then drop caller exclusions, then drop
// the already-selected exclusion too.
func (e *CandidateEngine) relaxedTier(base models.VideoQuery, excludeIDs []string) candidateTier {
	return candidateTier{
		name: "relaxed",
		fetch: func(ctx context.Context, need int, selected []string) ([]models.Video, error) {
			exclusions := [][]string{
				append(append([]string{}, selected...), excludeIDs...),
				selected,
				nil,
			}
			var lastErr error
			for _, notIn := range exclusions {
				q := base
				q.IDsNotIn = notIn
				q.Limit = need * 2
				q.Sort = models.SortTrending
				videos, err := e.store.QueryVideos(ctx, q)
				if err != nil {
					lastErr = err
					continue
				}
				if len(videos) == 0 {
					continue
				}
				e.shuffleVideos(videos)
				return head(videos, need), nil
			}
			return nil, lastErr
		},
	}
}

// recycledTier is the last resort: reuse any eligible content at all,
// ignoring watched and exclusion state.
func (e *CandidateEngine) recycledTier(base models.VideoQuery) candidateTier {
	return candidateTier{
		name: "recycled",
		fetch: func(ctx context.Context, need int, _ []string) ([]models.Video, error) {
			q := base
			q.Limit = recycleLimit
			q.Sort = models.SortTrending
			videos, err := e.store.QueryVideos(ctx, q)
			if err != nil {
				return nil, err
			}
			e.shuffleVideos(videos)
			return head(videos, need), nil
		},
	}
}

// pickSortOrder selects one of the composite orderings uniformly at
// random so no single ranking formula dominates every request. Falls
// back to plain trending when the store can't evaluate the composite.
func (e *CandidateEngine) pickSortOrder() models.SortOrder {
	e.mu.Lock()
	n := e.rng.Intn(4)
	e.mu.Unlock()

	var order models.SortOrder
	switch n {
	case 0:
		order = models.SortRecencyTrending
	case 1:
		order = models.SortTrendingRecency
	case 2:
		order = models.SortEngagementWeighted
	default:
		order = models.SortRecencyLikes
	}

	if order.Composite() && !e.store.SupportsCompositeSort() {
		return models.SortTrending
	}
	return order
}

func (e *CandidateEngine) shuffleVideos(videos []models.Video) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng.Shuffle(len(videos), func(i, j int) {
		videos[i], videos[j] = videos[j], videos[i]
	})
}

func (e *CandidateEngine) watchedOrEmpty(ctx context.Context, userID string) []string {
	watched, err := e.watched.Watched(ctx, userID)
	if err != nil {
		e.logger.Warn("Watched set unavailable, treating as empty",
			logging.WithField("error", err.Error()))
		return nil
	}
	return watched
}

func (e *CandidateEngine) relsOrEmpty(ctx context.Context, userID string, fetch func(context.Context, string) ([]string, error), kind string) []string {
	ids, err := fetch(ctx, userID)
	if err != nil {
		e.logger.Warn("Relationship set unavailable, treating as empty",
			logging.WithField("kind", kind),
			logging.WithField("error", err.Error()))
		return nil
	}
	return ids
}

func head(videos []models.Video, n int) []models.Video {
	if n > 0 && len(videos) > n {
		return videos[:n]
	}
	return videos
}
