package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchAttempts tracks every unit-of-work invocation by outcome
	DispatchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptforge_dispatch_attempts_total",
			Help: "Total number of generative calls attempted by the dispatcher",
		},
		[]string{"category", "model", "outcome"},
	)

	// DispatchLatency tracks the latency of a single attempt
	DispatchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scriptforge_dispatch_latency_seconds",
			Help:    "Generative call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"category", "model"},
	)

	// DispatchResults tracks the terminal result of a dispatch
	DispatchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptforge_dispatch_results_total",
			Help: "Total number of dispatches by terminal result",
		},
		[]string{"category", "result"},
	)

	// PoolCooldowns tracks forced waits between exhausted pools
	PoolCooldowns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptforge_pool_cooldowns_total",
			Help: "Total number of inter-pool cooldowns",
		},
		[]string{"category"},
	)

	// ActivePool tracks the last successful pool index
	ActivePool = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scriptforge_active_pool",
			Help: "Index of the credential pool that most recently succeeded",
		},
	)

	// RecoveryFallbacks counts structured responses replaced by their default
	RecoveryFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scriptforge_recovery_fallbacks_total",
			Help: "Total number of unparseable structured responses replaced by a default",
		},
	)

	// SegmentsCorrected counts non-target-script segments forced back to their original text
	SegmentsCorrected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scriptforge_segments_corrected_total",
			Help: "Total number of segments restored to their original text",
		},
	)

	// SegmentsProcessed tracks scene segments by result
	SegmentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptforge_segments_processed_total",
			Help: "Total number of scene segments processed",
		},
		[]string{"result"},
	)

	// DBConnectionPoolUsage tracks the percentage of used database connections
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scriptforge_db_connection_pool_usage",
			Help: "Percentage of database connections in use",
		},
	)
)
