// Package metrics exposes Prometheus instrumentation for dispatch and
// transport connections.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

const namespace = "realestate_mcp"

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	Router chi.Router

	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	connections  prometheus.Gauge
	decodeErrors *prometheus.CounterVec
}

// New creates the collectors and the /metrics router.
func New() *Metrics {
	m := &Metrics{
		Router:   chi.NewRouter(),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled by the dispatcher, by class, operation and outcome.",
		}, []string{"class", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent dispatching a request, handler included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"class", "operation"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Event-stream connections currently open.",
		}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Frames that could not be decoded, by transport.",
		}, []string{"transport"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.connections,
		m.decodeErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.Router.Get("/", m.handleMetrics)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveDispatch records one handled request.
func (m *Metrics) ObserveDispatch(class protocol.Class, op protocol.Operation, outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(string(class), string(op), outcome).Inc()
	m.duration.WithLabelValues(string(class), string(op)).Observe(elapsed.Seconds())
}

// ConnectionOpened records a new event-stream connection.
func (m *Metrics) ConnectionOpened() { m.connections.Inc() }

// ConnectionClosed records a closed event-stream connection.
func (m *Metrics) ConnectionClosed() { m.connections.Dec() }

// DecodeFailed records an undecodable frame on transport.
func (m *Metrics) DecodeFailed(transport string) {
	m.decodeErrors.WithLabelValues(transport).Inc()
}

// handleMetrics serves Prometheus-formatted metrics.
func (m *Metrics) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	families, err := m.registry.Gather()
	if err != nil {
		http.Error(w, "Failed to gather metrics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", string(expfmt.FmtText))
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			http.Error(w, "Failed to encode metrics", http.StatusInternalServerError)
			return
		}
	}
}
