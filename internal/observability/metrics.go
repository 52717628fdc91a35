package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// routing engine and the alert ingestion loop.
type Metrics struct {
	RoutingRequests *prometheus.CounterVec // labels: outcome={ok,not_affected,bad_request,missing_fields,origin_not_found,alert_not_found,no_safe_shelters,internal}
	RoutingDuration prometheus.Histogram

	// Route cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,error}

	// Directions provider metrics.
	DirectionsRequests *prometheus.CounterVec // labels: outcome={success,unavailable,error}
	DirectionsDuration prometheus.Histogram
	FallbackRoutes     prometheus.Counter

	// Notification metrics.
	Notifications *prometheus.CounterVec // labels: channel={broadcast,direct}, outcome={sent,failed,skipped}

	// Alert ingestion metrics.
	AlertsIngested  prometheus.Counter
	IngestErrors    prometheus.Counter
	ReferenceRoutes prometheus.Counter
	PipelineRunning prometheus.Gauge
	IngestBatchSize prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RoutingRequests,
		m.RoutingDuration,
		m.CacheLookups,
		m.DirectionsRequests,
		m.DirectionsDuration,
		m.FallbackRoutes,
		m.Notifications,
		m.AlertsIngested,
		m.IngestErrors,
		m.ReferenceRoutes,
		m.PipelineRunning,
		m.IngestBatchSize,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RoutingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evac_router",
			Name:      "routing_requests_total",
			Help:      "Routing requests by terminal outcome.",
		}, []string{"outcome"}),
		RoutingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evac_router",
			Name:      "routing_duration_seconds",
			Help:      "Duration of a complete routing request.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evac_router",
			Name:      "route_cache_lookups_total",
			Help:      "Route cache lookups by result.",
		}, []string{"result"}),
		DirectionsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evac_router",
			Name:      "directions_requests_total",
			Help:      "Directions provider calls by outcome.",
		}, []string{"outcome"}),
		DirectionsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evac_router",
			Name:      "directions_duration_seconds",
			Help:      "Directions provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 8},
		}),
		FallbackRoutes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_router",
			Name:      "fallback_routes_total",
			Help:      "Routes resolved via the compass-bearing fallback.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evac_router",
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		AlertsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_router",
			Name:      "alerts_ingested_total",
			Help:      "Alert records stored by the ingestion loop.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_router",
			Name:      "ingest_errors_total",
			Help:      "Alert records that failed processing and were skipped.",
		}),
		ReferenceRoutes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evac_router",
			Name:      "reference_routes_total",
			Help:      "Precomputed reference routes written per ingested alert.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evac_router",
			Name:      "ingest_pipeline_running",
			Help:      "1 when the ingestion loop is active, 0 when shut down.",
		}),
		IngestBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evac_router",
			Name:      "ingest_batch_size",
			Help:      "Number of alert messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
	}
}
