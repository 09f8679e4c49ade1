package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "newssync",
		Subsystem: "search",
		Name:      "queries_total",
		Help:      "Completed semantic search queries.",
	})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "newssync",
		Subsystem: "search",
		Name:      "query_duration_seconds",
		Help:      "Semantic search latency.",
		Buckets:   prometheus.DefBuckets,
	})

	searchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "newssync",
		Subsystem: "search",
		Name:      "fts_fallbacks_total",
		Help:      "Searches that fell back from the full-text index to substring matching.",
	})

	suggestionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "newssync",
		Subsystem: "search",
		Name:      "suggestion_cache_hits_total",
		Help:      "Suggestion lookups served from the in-memory cache.",
	})
)
