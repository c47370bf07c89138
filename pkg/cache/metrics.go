package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hits tracks fresh cache hits by category.
	Hits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_cache_hits_total",
			Help: "Total number of fresh cache hits",
		},
		[]string{"category"},
	)

	// Misses tracks cache misses (absent or expired) by category.
	Misses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"category"},
	)

	// StaleFallbacks tracks stale cache entries served after an
	// upstream failure, by category.
	StaleFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_cache_stale_fallbacks_total",
			Help: "Total number of stale cache entries served due to upstream failure",
		},
		[]string{"category"},
	)

	// Invalidations tracks explicit cache invalidations by category.
	Invalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_cache_invalidations_total",
			Help: "Total number of explicit cache invalidations",
		},
		[]string{"category"},
	)
)
