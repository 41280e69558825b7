package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubsearch",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"outcome"}, // "ok" / "degraded" / "empty" / "error"
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hubsearch",
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"stage"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubsearch",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ScoringFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hubsearch",
			Name:      "scoring_fallbacks_total",
			Help:      "Lexical fallbacks by reason",
		},
		[]string{"reason"}, // "error" / "short_query" / "fuzzy_requested"
	)

	CollectionDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hubsearch",
			Name:      "collection_documents",
			Help:      "Documents in the current collection snapshot",
		},
	)
)

// RegisterPipelineMetrics registers search pipeline metrics with the default
// registry. Called explicitly from the composition root (no init()).
func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		SearchStageDuration,
		ResultCacheTotal,
		ScoringFallbacksTotal,
		CollectionDocuments,
	)
}
