package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector records query latency and outcomes on its own registry.
type MetricsCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	rateLimited     prometheus.Counter
	sessions        prometheus.Gauge
	pushes          prometheus.Counter
}

// NewMetricsCollector creates and registers the orrery metrics.
func NewMetricsCollector() *MetricsCollector {
	m := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "orrery",
				Name:      "request_duration_seconds",
				Help:      "Time spent answering a query",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"operation"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orrery",
				Name:      "requests_total",
				Help:      "Total number of queries by outcome",
			},
			[]string{"operation", "outcome"},
		),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orrery",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client limiter",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orrery",
			Name:      "stream_sessions",
			Help:      "Open position stream sessions",
		}),
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orrery",
			Name:      "stream_pushes_total",
			Help:      "Position frames pushed to stream sessions",
		}),
	}

	m.registry.MustRegister(
		m.requestDuration,
		m.requestsTotal,
		m.rateLimited,
		m.sessions,
		m.pushes,
		prometheus.NewGoCollector(),
	)
	return m
}

// RecordRequest observes one query.
func (m *MetricsCollector) RecordRequest(operation, outcome string, duration time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
}

// Registry exposes the collector's registry.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
