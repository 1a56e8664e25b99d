// Package metrics provides the centralized Prometheus metrics registry for race-insights.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "race_insights"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	FetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetches_total",
		Help:      "Total number of results fetches by source and outcome",
	}, []string{"source", "outcome"})
	RecordsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_ingested_total",
		Help:      "Total number of race records accepted at ingestion",
	})
	RecordsRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_rejected_total",
		Help:      "Total number of race records rejected with a schema error",
	})
	StaleResponsesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_responses_total",
		Help:      "Total number of fetch responses discarded because a newer request was issued",
	})
	AnalysesGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_generated_total",
		Help:      "Total number of race analyses generated",
	})
	ViewTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_transitions_total",
		Help:      "Total number of view transitions by target view and outcome",
	}, []string{"view", "outcome"})
)

// Gauge metrics
var (
	MeetingRaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "meeting_races",
		Help:      "Number of races in the current working set",
	})
	AnalysisCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "analysis_cache_hit_ratio",
		Help:      "Hit ratio of the analysis cache",
	})
	StreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_clients",
		Help:      "Number of connected websocket clients",
	})
)

// Histogram metrics
var (
	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of results fetches in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(FetchesTotal)
		registry.MustRegister(RecordsIngestedTotal)
		registry.MustRegister(RecordsRejectedTotal)
		registry.MustRegister(StaleResponsesTotal)
		registry.MustRegister(AnalysesGeneratedTotal)
		registry.MustRegister(ViewTransitionsTotal)

		registry.MustRegister(MeetingRaces)
		registry.MustRegister(AnalysisCacheHitRatio)
		registry.MustRegister(StreamClients)

		registry.MustRegister(FetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordFetch records a fetch outcome and its duration.
func RecordFetch(source, outcome string, durationSeconds float64) {
	FetchesTotal.WithLabelValues(source, outcome).Inc()
	FetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordIngestion records accepted and rejected record counts.
func RecordIngestion(accepted, rejected int) {
	RecordsIngestedTotal.Add(float64(accepted))
	RecordsRejectedTotal.Add(float64(rejected))
}

// RecordStaleResponse records a discarded out-of-order response.
func RecordStaleResponse() {
	StaleResponsesTotal.Inc()
}

// RecordAnalysisGenerated records a freshly generated analysis.
func RecordAnalysisGenerated() {
	AnalysesGeneratedTotal.Inc()
}

// RecordViewTransition records an accepted or rejected view change.
func RecordViewTransition(view string, accepted bool) {
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	ViewTransitionsTotal.WithLabelValues(view, outcome).Inc()
}

// UpdateMeetingRaces updates the working set size gauge.
func UpdateMeetingRaces(count int) {
	MeetingRaces.Set(float64(count))
}

// UpdateAnalysisCacheHitRatio updates the cache hit ratio gauge.
func UpdateAnalysisCacheHitRatio(ratio float64) {
	AnalysisCacheHitRatio.Set(ratio)
}

// UpdateStreamClients updates the connected client gauge.
func UpdateStreamClients(count int) {
	StreamClients.Set(float64(count))
}
