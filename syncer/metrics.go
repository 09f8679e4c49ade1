package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newssync",
			Subsystem: "syncer",
			Name:      "syncs_total",
			Help:      "Sync passes by outcome (success/failure/skipped/rejected).",
		},
		[]string{"outcome"},
	)

	syncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newssync",
			Subsystem: "syncer",
			Name:      "duration_seconds",
			Help:      "Wall time of completed sync passes.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	syncRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "newssync",
			Subsystem: "syncer",
			Name:      "records_downloaded_total",
			Help:      "Records written to the local store by sync passes.",
		},
	)
)
