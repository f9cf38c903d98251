package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/johnrirwin/streamforge/internal/ads"
	"github.com/johnrirwin/streamforge/internal/auth"
	"github.com/johnrirwin/streamforge/internal/cache"
	"github.com/johnrirwin/streamforge/internal/config"
	"github.com/johnrirwin/streamforge/internal/database"
	"github.com/johnrirwin/streamforge/internal/feed"
	"github.com/johnrirwin/streamforge/internal/httpapi"
	"github.com/johnrirwin/streamforge/internal/logging"
	"github.com/johnrirwin/streamforge/internal/metrics"
	"github.com/johnrirwin/streamforge/internal/ratelimit"
	"github.com/johnrirwin/streamforge/internal/scheduler"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Store      cache.Store
	FeedSvc    *feed.Service
	HTTPServer *httpapi.Server
	Registry   *prometheus.Registry

	db        *database.DB
	redis     *cache.RedisStore
	memory    *cache.MemoryStore
	feedCache *feed.FeedCache
	worker    *scheduler.Worker
	memSched  *scheduler.MemoryScheduler
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}
	app.Logger = logging.New(logging.ParseLevel(cfg.Logging.Level))

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector())
	feedMetrics := metrics.New(app.Registry)

	sched := app.initScheduler()

	videoStore := database.NewVideoStore(app.db)
	relStore := database.NewRelationshipStore(app.db)

	watched := feed.NewWatchedSetTracker(app.Store)
	sessions := feed.NewSessionIdentity(app.Store)
	engine := feed.NewCandidateEngine(videoStore, relStore, watched, feedMetrics, app.Logger)
	engine.SetTierTimeout(cfg.Feed.TierTimeout)
	ranker := feed.NewShuffleRanker()
	app.feedCache = feed.NewFeedCache(app.Store, sched, feedMetrics, app.Logger)

	app.FeedSvc = feed.NewService(sessions, app.feedCache, engine, ranker, watched, ads.NewStatic(nil), app.Logger)

	if app.worker != nil {
		app.worker.Register(feed.TaskKindFeedRefresh, app.FeedSvc.HandleRefreshTask)
	}
	if app.memSched != nil {
		app.memSched.Register(feed.TaskKindFeedRefresh, app.FeedSvc.HandleRefreshTask)
	}

	authSvc := auth.NewService(auth.Config{
		JWTSecret:   cfg.Auth.JWTSecret,
		JWTIssuer:   cfg.Auth.JWTIssuer,
		JWTAudience: cfg.Auth.JWTAudience,
	})
	limiter := ratelimit.New(cfg.Server.RateLimitDur)

	app.HTTPServer = httpapi.New(app.FeedSvc, auth.NewMiddleware(authSvc), limiter, app.Registry, app.Logger)

	return app, nil
}

func (a *App) initStore() error {
	switch a.Config.Cache.Backend {
	case "redis":
		store, err := cache.NewRedis(cache.RedisConfig{
			Addr:     a.Config.Cache.RedisAddr,
			Password: a.Config.Cache.RedisPassword,
			DB:       a.Config.Cache.RedisDB,
			Prefix:   a.Config.Cache.Prefix,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.Logger.Info("Using Redis cache backend",
			logging.WithField("addr", a.Config.Cache.RedisAddr))
		a.redis = store
		a.Store = store
	default:
		a.Logger.Info("Using in-memory cache backend")
		a.memory = cache.NewMemory()
		a.Store = a.memory
	}
	return nil
}

func (a *App) initDatabase() error {
	dbCfg := database.DefaultConfig()
	dbCfg.Host = a.Config.Database.Host
	dbCfg.Port = a.Config.Database.Port
	dbCfg.User = a.Config.Database.User
	dbCfg.Password = a.Config.Database.Password
	dbCfg.Database = a.Config.Database.Database
	dbCfg.SSLMode = a.Config.Database.SSLMode

	db, err := database.New(dbCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	a.db = db
	return nil
}

func (a *App) initScheduler() scheduler.Scheduler {
	if a.redis != nil {
		sched := scheduler.NewRedis(a.redis.Client(), a.Config.Cache.Prefix)
		a.worker = scheduler.NewWorker(sched, []string{scheduler.LaneLow, scheduler.LaneDefault}, a.Logger)
		return sched
	}
	a.memSched = scheduler.NewMemory()
	return a.memSched
}

// Run starts the background worker and the HTTP server, blocking until
// the server stops.
func (a *App) Run(ctx context.Context) error {
	if a.worker != nil {
		go a.worker.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.HTTPServer.Start(a.Config.Server.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}
	if a.feedCache != nil {
		a.feedCache.Stop()
	}
	if a.memSched != nil {
		a.memSched.Stop()
	}
	if a.memory != nil {
		a.memory.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error("Redis close error", logging.WithField("error", err.Error()))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error("Database close error", logging.WithField("error", err.Error()))
		}
	}
	return nil
}
