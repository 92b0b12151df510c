// Package observability defines the Prometheus metrics for the report
// generation pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report pipeline.
type Metrics struct {
	GenerationsTotal   *prometheus.CounterVec // labels: outcome={success,error}
	GenerationDuration prometheus.Histogram
	FetchErrors        prometheus.Counter
	AlertLevel         *prometheus.GaugeVec // labels: level={red,yellow,calm}; 1 for the current level
	LastGenerationTime prometheus.Gauge
}

// newMetrics builds the metric set without registering it.
func newMetrics() *Metrics {
	return &Metrics{
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ripwatch",
			Name:      "generations_total",
			Help:      "Report generation runs by outcome.",
		}, []string{"outcome"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ripwatch",
			Name:      "generation_duration_seconds",
			Help:      "Duration of a complete fetch-detect-render-resample run.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ripwatch",
			Name:      "fetch_errors_total",
			Help:      "Failed downloads of the upstream forecast chart.",
		}),
		AlertLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ripwatch",
			Name:      "alert_level",
			Help:      "1 for the currently classified alert level, 0 for the others.",
		}, []string{"level"}),
		LastGenerationTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ripwatch",
			Name:      "last_generation_timestamp_seconds",
			Help:      "Unix timestamp of the last successful generation.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GenerationsTotal,
		m.GenerationDuration,
		m.FetchErrors,
		m.AlertLevel,
		m.LastGenerationTime,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// HTTPMetrics holds the per-request metrics recorded by the API middleware.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec   // labels: method, path, status
	RequestDuration *prometheus.HistogramVec // labels: method, path
}

func newHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ripwatch",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern, and status code.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ripwatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30, 90},
		}, []string{"method", "path"}),
	}
}

// NewHTTPMetrics creates and registers the HTTP metrics with the default
// Prometheus registry.
func NewHTTPMetrics() *HTTPMetrics {
	m := newHTTPMetrics()
	prometheus.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

// NewHTTPMetricsForTesting creates HTTPMetrics without touching the default
// registry.
func NewHTTPMetricsForTesting() *HTTPMetrics {
	return newHTTPMetrics()
}

// Record adds one observation for a completed request.
func (m *HTTPMetrics) Record(method, path, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// SetAlertLevel records the current alert level, zeroing the other levels so
// at most one series reports 1.
func (m *Metrics) SetAlertLevel(level string) {
	for _, l := range []string{"red", "yellow", "calm"} {
		v := 0.0
		if l == level {
			v = 1.0
		}
		m.AlertLevel.WithLabelValues(l).Set(v)
	}
}
