package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DBQueryDuration tracks latency of database queries by operation.
var DBQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "aimarket_db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// AnalysisGenerated counts AI analysis reports generated, labelled by urgency.
var AnalysisGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "aimarket_analysis_generated_total",
		Help: "Total number of replication analysis reports generated",
	},
	[]string{"urgency"},
)

// ObserveQuery records a single query duration for the given operation label.
func ObserveQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
