// Package metrics exposes Prometheus counters for the token lifecycle and provider traffic.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh results.
const (
	RefreshCached   = "cached"
	RefreshRotated  = "refreshed"
	RefreshRejected = "rejected"
	RefreshFailed   = "failed"
)

// Deletion reasons.
const (
	DeletedDisconnect      = "disconnect"
	DeletedRefreshRejected = "refresh_rejected"
	DeletedNoRefreshToken  = "no_refresh_token"
)

type Metrics struct {
	registry           *prometheus.Registry
	tokenRefresh       *prometheus.CounterVec
	providerRequests   *prometheus.CounterVec
	providerLatency    *prometheus.HistogramVec
	connectionsDeleted *prometheus.CounterVec
}

// New creates the collectors on a private registry together with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokenRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drive_nexus_token_refresh_total",
			Help: "Access token lookups by outcome.",
		}, []string{"result"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drive_nexus_provider_requests_total",
			Help: "Outbound provider calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drive_nexus_provider_request_duration_seconds",
			Help:    "Latency of outbound provider calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		connectionsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drive_nexus_connections_deleted_total",
			Help: "Stored connections removed, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.tokenRefresh,
		m.providerRequests,
		m.providerLatency,
		m.connectionsDeleted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TokenLookup(result string) {
	if m == nil {
		return
	}
	m.tokenRefresh.WithLabelValues(result).Inc()
}

// ProviderCall records one outbound call started at start.
func (m *Metrics) ProviderCall(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(op, outcome).Inc()
	m.providerLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ConnectionDeleted(reason string) {
	if m == nil {
		return
	}
	m.connectionsDeleted.WithLabelValues(reason).Inc()
}
