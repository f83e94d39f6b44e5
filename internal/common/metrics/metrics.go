// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Worker metrics.
var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Discovery metrics.
var (
	DiscoveryTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_turns_total",
			Help: "Turns processed, by response mode",
		},
		[]string{"mode"},
	)

	DiscoveryTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_turn_duration_seconds",
			Help:    "End-to-end turn latency, by response mode",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"mode"},
	)

	DiscoveryClarifyDowngrades = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_clarify_downgrades_total",
			Help: "Questions replaced by a search because the clarifying cap was reached or nothing was left to ask",
		},
	)

	DiscoveryExtractorFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_extractor_fallbacks_total",
			Help: "Turns that fell back to raw-utterance search",
		},
		[]string{"reason"},
	)

	DiscoveryCatalogFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_catalog_failures_total",
			Help: "Catalog lookups that failed",
		},
		[]string{"reason"},
	)

	DiscoveryCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_candidates_fetched",
			Help:    "Candidates returned by the catalog per turn",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_cache_lookups_total",
			Help: "Memoization cache lookups, by cache name and result",
		},
		[]string{"cache", "result"},
	)
)
