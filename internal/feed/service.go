package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/johnrirwin/streamforge/internal/ads"
	"github.com/johnrirwin/streamforge/internal/logging"
	"github.com/johnrirwin/streamforge/internal/models"
	"github.com/johnrirwin/streamforge/internal/scheduler"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// Service is the feed engine's public entry point. It composes session
// identity, the batch cache, the candidate engine, the ranker, and the
// ad provider; it carries no ranking logic of its own.
type Service struct {
	sessions *SessionIdentity
	cache    *FeedCache
	engine   *CandidateEngine
	ranker   *ShuffleRanker
	watched  *WatchedSetTracker
	ads      ads.Provider
	logger   *logging.Logger
}

// NewService creates the feed service.
func NewService(sessions *SessionIdentity, cache *FeedCache, engine *CandidateEngine, ranker *ShuffleRanker, watched *WatchedSetTracker, adsProvider ads.Provider, logger *logging.Logger) *Service {
	return &Service{
		sessions: sessions,
		cache:    cache,
		engine:   engine,
		ranker:   ranker,
		watched:  watched,
		ads:      adsProvider,
		logger:   logger,
	}
}

// GetFeed returns one feed page for the user. Cache hits are re-shuffled
// rather than returned verbatim so repeated reads stay visually fresh;
// misses run the tiered candidate query. An empty page with NoContent
// set is a valid response, not an error.
func (s *Service) GetFeed(ctx context.Context, userID string, feedType models.FeedType, limit int) (*models.FeedPage, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	token, err := s.sessions.SessionToken(ctx, userID)
	if err != nil {
		// Degrade to an uncached computation rather than failing the read.
		s.logger.Warn("Session token unavailable, serving uncached feed",
			logging.WithField("error", err.Error()))
		token = ""
	}

	if token != "" {
		key := batchKey(userID, feedType, token)
		if cached, ok := s.cache.Get(ctx, key, feedType); ok {
			videos := s.ranker.Reshuffle(cached, limit)
			s.cache.ScheduleRefresh(ctx, userID, feedType, limit, models.VideoIDs(cached))
			return s.page(ctx, userID, feedType, videos), nil
		}
	}

	candidates, err := s.engine.FetchCandidates(ctx, userID, feedType, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch feed candidates: %w", err)
	}

	videos := s.ranker.Arrange(candidates, limit)

	if token != "" && len(videos) > 0 {
		key := batchKey(userID, feedType, token)
		if err := s.cache.Put(ctx, key, videos); err != nil {
			s.logger.Warn("Failed to cache feed batch",
				logging.WithField("error", err.Error()))
		}
		s.cache.ScheduleRefresh(ctx, userID, feedType, limit, models.VideoIDs(videos))
	}

	return s.page(ctx, userID, feedType, videos), nil
}

// MarkWatched records that the user watched a video.
func (s *Service) MarkWatched(ctx context.Context, userID, videoID string) error {
	return s.watched.MarkWatched(ctx, userID, videoID)
}

// ResetSession drops the user's session token and every cached batch,
// so the next request regenerates from scratch under a new token.
func (s *Service) ResetSession(ctx context.Context, userID string) error {
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate local feed cache",
			logging.WithField("error", err.Error()))
	}
	return s.sessions.Reset(ctx, userID)
}

// HandleRefreshTask regenerates a cached batch in the background. It
// excludes the batch's current IDs so the refresh brings in content the
// user hasn't just been served. Registered under TaskKindFeedRefresh.
func (s *Service) HandleRefreshTask(ctx context.Context, task scheduler.Task) error {
	var payload RefreshPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("decode refresh payload: %w", err)
	}

	candidates, err := s.engine.FetchCandidates(ctx, payload.UserID, payload.FeedType, payload.Limit, payload.CurrentIDs)
	if err != nil {
		return fmt.Errorf("refresh candidates: %w", err)
	}
	videos := s.ranker.Arrange(candidates, payload.Limit)
	if len(videos) == 0 {
		return nil
	}

	token, err := s.sessions.SessionToken(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("refresh session token: %w", err)
	}

	// Last-writer-wins against concurrent reads; feed content is not
	// consistency-critical.
	key := batchKey(payload.UserID, payload.FeedType, token)
	if err := s.cache.Put(ctx, key, videos); err != nil {
		return fmt.Errorf("write refreshed batch: %w", err)
	}

	s.logger.Debug("Refreshed feed batch", logging.WithFields(map[string]interface{}{
		"user":     payload.UserID,
		"feedType": string(payload.FeedType),
		"count":    len(videos),
	}))
	return nil
}

func (s *Service) page(ctx context.Context, userID string, feedType models.FeedType, videos []models.Video) *models.FeedPage {
	page := &models.FeedPage{
		Videos:    videos,
		NoContent: len(videos) == 0,
	}

	placements, err := s.ads.Placements(ctx, userID, feedType, len(videos))
	if err != nil {
		s.logger.Warn("Ad provider failed, serving feed without ads",
			logging.WithField("error", err.Error()))
	} else {
		page.Ads = placements
	}
	return page
}
