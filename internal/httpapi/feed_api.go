package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/johnrirwin/streamforge/internal/auth"
	"github.com/johnrirwin/streamforge/internal/feed"
	"github.com/johnrirwin/streamforge/internal/logging"
	"github.com/johnrirwin/streamforge/internal/models"
	"github.com/johnrirwin/streamforge/internal/ratelimit"
)

// FeedAPI handles feed HTTP endpoints
type FeedAPI struct {
	feedSvc        *feed.Service
	authMiddleware *auth.Middleware
	limiter        ratelimit.RateLimiter
	logger         *logging.Logger
}

// NewFeedAPI creates a new feed API handler
func NewFeedAPI(feedSvc *feed.Service, authMiddleware *auth.Middleware, limiter ratelimit.RateLimiter, logger *logging.Logger) *FeedAPI {
	return &FeedAPI{
		feedSvc:        feedSvc,
		authMiddleware: authMiddleware,
		limiter:        limiter,
		logger:         logger,
	}
}

// RegisterRoutes registers feed routes on the given mux
func (api *FeedAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/feed", corsMiddleware(api.authMiddleware.RequireAuth(api.handleGetFeed)))
	mux.HandleFunc("/api/feed/watched/", corsMiddleware(api.authMiddleware.RequireAuth(api.handleMarkWatched)))
	mux.HandleFunc("/api/feed/reset", corsMiddleware(api.authMiddleware.RequireAuth(api.handleReset)))
}

// handleGetFeed handles GET /api/feed?type={mixed|following|sport}&limit=n
func (api *FeedAPI) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())
	if api.limiter != nil && !api.limiter.Allow(userID) {
		api.writeError(w, http.StatusTooManyRequests, "rate_limited", "too many feed requests")
		return
	}

	feedType, err := models.ParseFeedType(r.URL.Query().Get("type"))
	if err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			api.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
	}

	page, err := api.feedSvc.GetFeed(r.Context(), userID, feedType, limit)
	if err != nil {
		api.logger.Error("Failed to build feed", logging.WithFields(map[string]interface{}{
			"user":     userID,
			"feedType": string(feedType),
			"error":    err.Error(),
		}))
		api.writeError(w, http.StatusInternalServerError, "internal_error", "failed to build feed")
		return
	}

	api.writeJSON(w, http.StatusOK, page)
}

// handleMarkWatched handles POST /api/feed/watched/{videoId}
func (api *FeedAPI) handleMarkWatched(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/feed/watched/")
	videoID := strings.TrimSuffix(path, "/")
	if videoID == "" {
		api.writeError(w, http.StatusBadRequest, "invalid_request", "video ID required")
		return
	}
	// The watched set feeds straight into uuid[] query parameters; a
	// malformed ID stored here would fail every primary-tier query for
	// this user until it ages out of the set.
	if _, err := uuid.Parse(videoID); err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid_request", "video ID must be a valid UUID")
		return
	}

	userID := auth.GetUserID(r.Context())
	if err := api.feedSvc.MarkWatched(r.Context(), userID, videoID); err != nil {
		api.logger.Error("Failed to mark watched", logging.WithFields(map[string]interface{}{
			"user":  userID,
			"video": videoID,
			"error": err.Error(),
		}))
		api.writeError(w, http.StatusInternalServerError, "internal_error", "failed to mark watched")
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleReset handles POST /api/feed/reset
func (api *FeedAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())
	if err := api.feedSvc.ResetSession(r.Context(), userID); err != nil {
		api.logger.Error("Failed to reset feed session", logging.WithFields(map[string]interface{}{
			"user":  userID,
			"error": err.Error(),
		}))
		api.writeError(w, http.StatusInternalServerError, "internal_error", "failed to reset feed session")
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (api *FeedAPI) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Error("Failed to encode response", logging.WithField("error", err.Error()))
	}
}

func (api *FeedAPI) writeError(w http.ResponseWriter, status int, code, message string) {
	api.writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
