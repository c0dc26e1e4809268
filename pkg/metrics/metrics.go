package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "componentdb_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "componentdb_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Transcript metrics
	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "componentdb_messages_appended_total",
			Help: "Messages appended to transcripts",
		},
		[]string{"role"},
	)

	PatchesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "componentdb_patches_total",
			Help: "Patch-by-id operations by outcome (patched or appended)",
		},
		[]string{"action"},
	)

	MergeRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "componentdb_merge_rejections_total",
			Help: "User input merges rejected by the engine",
		},
		[]string{"reason"},
	)

	TurnsRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "componentdb_turns_total",
			Help: "Agent turns by outcome",
		},
		[]string{"outcome"},
	)

	ThreadsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "componentdb_threads_purged_total",
			Help: "Threads removed by the retention runner",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "componentdb_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)
