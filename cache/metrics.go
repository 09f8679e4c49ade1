package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newssync",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache reads answered with data, by mode (fresh/offline).",
		},
		[]string{"mode"},
	)

	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newssync",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache reads with no usable entry, by mode (online/offline).",
		},
		[]string{"mode"},
	)

	cacheFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newssync",
			Subsystem: "cache",
			Name:      "fallbacks_total",
			Help:      "Reads served from cache after a failed remote fetch.",
		},
	)
)
