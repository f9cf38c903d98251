package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FeedMetrics instruments the feed cache and candidate query engine.
type FeedMetrics struct {
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	CacheGetDuration prometheus.Histogram
	TierFills        *prometheus.CounterVec
	RefreshScheduled prometheus.Counter
	RefreshSkipped   prometheus.Counter
}

// New creates feed metrics registered against the given registerer.
func New(reg prometheus.Registerer) *FeedMetrics {
	factory := promauto.With(reg)

	return &FeedMetrics{
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Feed batch cache hits by feed type.",
		}, []string{"feed_type"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Feed batch cache misses by feed type.",
		}, []string{"feed_type"}),
		CacheGetDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "feed_cache_get_duration_seconds",
			Help:    "Latency of feed batch cache lookups.",
			Buckets: prometheus.DefBuckets,
		}),
		TierFills: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_candidate_tier_fills_total",
			Help: "Videos contributed to feeds by each candidate tier.",
		}, []string{"tier"}),
		RefreshScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_refresh_scheduled_total",
			Help: "Background feed refresh tasks enqueued.",
		}),
		RefreshSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_refresh_skipped_total",
			Help: "Background feed refreshes skipped because one was already in flight.",
		}),
	}
}

// NewUnregistered creates feed metrics on a private registry, for tests.
func NewUnregistered() *FeedMetrics {
	return New(prometheus.NewRegistry())
}
