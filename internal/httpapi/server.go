package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnrirwin/streamforge/internal/auth"
	"github.com/johnrirwin/streamforge/internal/feed"
	"github.com/johnrirwin/streamforge/internal/logging"
	"github.com/johnrirwin/streamforge/internal/ratelimit"
)

type Server struct {
	feedSvc        *feed.Service
	authMiddleware *auth.Middleware
	limiter        ratelimit.RateLimiter
	registry       *prometheus.Registry
	logger         *logging.Logger
	server         *http.Server
}

func New(feedSvc *feed.Service, authMiddleware *auth.Middleware, limiter ratelimit.RateLimiter, registry *prometheus.Registry, logger *logging.Logger) *Server {
	return &Server{
		feedSvc:        feedSvc,
		authMiddleware: authMiddleware,
		limiter:        limiter,
		registry:       registry,
		logger:         logger,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	feedAPI := NewFeedAPI(s.feedSvc, s.authMiddleware, s.limiter, s.logger)
	feedAPI.RegisterRoutes(mux, s.corsMiddleware)

	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
