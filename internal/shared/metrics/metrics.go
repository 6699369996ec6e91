// Package metrics defines the Prometheus collectors for the gateway and
// exposes an HTTP handler for scraping.
package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the gateway.
type Metrics struct {
	registry *prometheus.Registry

	IngestRequestsTotal *prometheus.CounterVec
	IngestDuration      *prometheus.HistogramVec
	StoredBytesTotal    *prometheus.CounterVec
	StoredArtifacts     *prometheus.CounterVec
}

// New creates and registers all gateway metrics on a private registry, so
// independently built instances (tests included) never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		IngestRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_requests_total",
				Help: "Total ingestion requests by transport mode and response status.",
			},
			[]string{"mode", "status"},
		),
		IngestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_request_duration_seconds",
				Help:    "Ingestion request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"mode"},
		),
		StoredBytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_stored_bytes_total",
				Help: "Total bytes committed to storage by category.",
			},
			[]string{"category"},
		),
		StoredArtifacts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_stored_artifacts_total",
				Help: "Total artifacts committed to storage by category.",
			},
			[]string{"category"},
		),
	}

	reg.MustRegister(
		m.IngestRequestsTotal,
		m.IngestDuration,
		m.StoredBytesTotal,
		m.StoredArtifacts,
	)

	return m
}

// ObserveRequest records one completed ingestion request.
func (m *Metrics) ObserveRequest(mode string, status int, seconds float64) {
	m.IngestRequestsTotal.WithLabelValues(mode, strconv.Itoa(status)).Inc()
	m.IngestDuration.WithLabelValues(mode).Observe(seconds)
}

// ObserveArtifact records one stored artifact.
func (m *Metrics) ObserveArtifact(category string, sizeBytes int64) {
	m.StoredArtifacts.WithLabelValues(category).Inc()
	m.StoredBytesTotal.WithLabelValues(category).Add(float64(sizeBytes))
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
