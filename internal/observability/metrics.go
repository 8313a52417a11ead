package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the grid
// engine.
type Metrics struct {
	PointsImported prometheus.Counter
	ImportErrors   prometheus.Counter
	ImportRunning  prometheus.Gauge

	ImportUnitDuration prometheus.Histogram

	// Upstream provider metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: kind={daily,baseline}, outcome={success,error,malformed}
	UpstreamDuration *prometheus.HistogramVec // labels: kind={daily,baseline}
	BaselineCache    *prometheus.CounterVec   // labels: result={hit,miss}

	// Resolution metrics.
	ResolveRequests    *prometheus.CounterVec // labels: tier={stored,live,synthetic}
	SyntheticGenerated prometheus.Counter
	PointsPublished    prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PointsImported,
		m.ImportErrors,
		m.ImportRunning,
		m.ImportUnitDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.BaselineCache,
		m.ResolveRequests,
		m.SyntheticGenerated,
		m.PointsPublished,
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
		PointsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_grid",
			Name:      "points_imported_total",
			Help:      "Total grid data points written by the ingestion pipeline.",
		}),
		ImportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_grid",
			Name:      "import_errors_total",
			Help:      "Total fetch, derivation, or persistence failures during import.",
		}),
		ImportRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_grid",
			Name:      "import_running",
			Help:      "1 while an import run is active.",
		}),
		ImportUnitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_grid",
			Name:      "import_unit_duration_seconds",
			Help:      "Duration of one (location, scenario, period) import unit.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_grid",
			Name:      "upstream_requests_total",
			Help:      "Climate provider requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_grid",
			Name:      "upstream_duration_seconds",
			Help:      "Climate provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		BaselineCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_grid",
			Name:      "baseline_cache_total",
			Help:      "Baseline cache lookups by result.",
		}, []string{"result"}),
		ResolveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_grid",
			Name:      "resolve_requests_total",
			Help:      "Resolved location requests by fallback tier.",
		}, []string{"tier"}),
		SyntheticGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_grid",
			Name:      "synthetic_generated_total",
			Help:      "Synthetic indicator values generated.",
		}),
		PointsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_grid",
			Name:      "points_published_total",
			Help:      "Grid data points published to the sink topic.",
		}),
	}
}
