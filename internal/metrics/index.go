package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reload outcomes.
const (
	ReloadOK     = "ok"
	ReloadFailed = "failed"
)

// Query outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeEmpty    = "empty"
	OutcomeNotFound = "not_found"
	OutcomeNotReady = "not_ready"
)

// Index and query Prometheus metrics.
var (
	IndexBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Time to load a snapshot and build the index",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	IndexReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_reloads_total",
			Help:      "Index reload attempts by outcome",
		},
		[]string{"status"},
	)

	IndexProviders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_providers",
			Help:      "Doctors in the current index",
		},
	)

	IndexSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_slots",
			Help:      "Appointment slots in the current index",
		},
	)

	IndexDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_dropped_total",
			Help:      "Source rows left out of built indexes",
		},
		[]string{"kind"}, // doctor_score, feature_score, appointment
	)

	SourceAnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_anomalies_total",
			Help:      "Suspicious source rows seen while loading snapshots",
		},
		[]string{"kind"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Index queries by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	QueryResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Doctors returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

var indexMetricsRegistered bool

// RegisterIndexMetrics registers index and query metrics. Must be called once from main.
func RegisterIndexMetrics() {
	if indexMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(IndexReloadsTotal)
	prometheus.MustRegister(IndexProviders)
	prometheus.MustRegister(IndexSlots)
	prometheus.MustRegister(IndexDroppedTotal)
	prometheus.MustRegister(SourceAnomaliesTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryResults)
	indexMetricsRegistered = true
}

// BuildSummary is what a successful build reports.
type BuildSummary struct {
	Duration             time.Duration
	Providers            int
	Slots                int
	DroppedDoctorScores  int
	DroppedFeatureScores int
	DroppedAppointments  int
}

// ObserveBuild records a successful build.
func ObserveBuild(s BuildSummary) {
	IndexReloadsTotal.WithLabelValues(ReloadOK).Inc()
	IndexBuildDuration.Observe(s.Duration.Seconds())
	IndexProviders.Set(float64(s.Providers))
	IndexSlots.Set(float64(s.Slots))
	IndexDroppedTotal.WithLabelValues("doctor_score").Add(float64(s.DroppedDoctorScores))
	IndexDroppedTotal.WithLabelValues("feature_score").Add(float64(s.DroppedFeatureScores))
	IndexDroppedTotal.WithLabelValues("appointment").Add(float64(s.DroppedAppointments))
}

// ObserveReloadFailure records a failed build attempt.
func ObserveReloadFailure() {
	IndexReloadsTotal.WithLabelValues(ReloadFailed).Inc()
}

// ObserveAnomaly adds n anomalies of the given kind.
func ObserveAnomaly(kind string, n int) {
	if n <= 0 {
		return
	}
	SourceAnomaliesTotal.WithLabelValues(kind).Add(float64(n))
}

// ObserveQuery records one query outcome.
func ObserveQuery(operation, outcome string) {
	QueriesTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveSearchResults records how many doctors a search returned.
func ObserveSearchResults(n int) {
	QueryResults.Observe(float64(n))
}
