// Package metrics provides Prometheus instrumentation for the media
// streaming server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the streaming server
type Metrics struct {
	// Connection metrics
	ConnectionsAccepted prometheus.Counter
	AcceptErrors        prometheus.Counter
	ActiveConnections   prometheus.Gauge

	// Request metrics
	RequestsServed  *prometheus.CounterVec
	ParseErrors     prometheus.Counter
	RequestDuration prometheus.Histogram

	// Streaming metrics
	BytesStreamed  prometheus.Counter
	StreamAborts   prometheus.Counter
	ResponseSize   prometheus.Histogram

	// Catalog metrics
	CatalogTracks  prometheus.Gauge
	CatalogReloads prometheus.Counter
	ReloadDuration prometheus.Histogram

	// Admin API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "media_connections_accepted_total",
			Help: "Total number of TCP connections accepted",
		}),
		AcceptErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "media_accept_errors_total",
			Help: "Total number of failed accept attempts",
		}),
		ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "media_active_connections",
			Help: "Current number of in-flight connection handlers",
		}),

		RequestsServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "media_requests_total",
			Help: "Total number of requests served",
		}, []string{"route", "status"}),
		ParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "media_parse_errors_total",
			Help: "Total number of unparseable requests",
		}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "media_request_duration_seconds",
			Help:    "Time from accept to connection close",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~5 minutes
		}),

		BytesStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "media_bytes_streamed_total",
			Help: "Total body bytes written to clients",
		}),
		StreamAborts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "media_stream_aborts_total",
			Help: "Total number of streams aborted by a failed socket write",
		}),
		ResponseSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "media_response_size_bytes",
			Help:    "Body size of served responses",
			Buckets: prometheus.ExponentialBuckets(64, 4, 12), // 64B to ~1GB
		}),

		CatalogTracks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "media_catalog_tracks",
			Help: "Current number of tracks in the catalog",
		}),
		CatalogReloads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "media_catalog_reloads_total",
			Help: "Total number of catalog reloads",
		}),
		ReloadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "media_catalog_reload_duration_seconds",
			Help:    "Duration of catalog rebuild scans",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "media_admin_http_requests_total",
			Help: "Total number of admin API requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "media_admin_http_request_duration_seconds",
			Help:    "Duration of admin API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordConnectionAccepted increments the accepted-connections counter
func (m *Metrics) RecordConnectionAccepted() {
	m.ConnectionsAccepted.Inc()
}

// RecordAcceptError increments the failed-accept counter
func (m *Metrics) RecordAcceptError() {
	m.AcceptErrors.Inc()
}

// ConnectionOpened marks a handler goroutine as in flight
func (m *Metrics) ConnectionOpened() {
	m.ActiveConnections.Inc()
}

// ConnectionClosed marks a handler goroutine as finished and records its duration
func (m *Metrics) ConnectionClosed(durationSeconds float64) {
	m.ActiveConnections.Dec()
	m.RequestDuration.Observe(durationSeconds)
}

// RecordRequest records one served request by route and status
func (m *Metrics) RecordRequest(route string, status int) {
	m.RequestsServed.WithLabelValues(route, statusLabel(status)).Inc()
}

// RecordParseError increments the parse errors counter
func (m *Metrics) RecordParseError() {
	m.ParseErrors.Inc()
}

// RecordBytesStreamed accounts body bytes written for one response
func (m *Metrics) RecordBytesStreamed(n int64) {
	m.BytesStreamed.Add(float64(n))
	m.ResponseSize.Observe(float64(n))
}

// RecordStreamAbort increments the aborted-stream counter
func (m *Metrics) RecordStreamAbort() {
	m.StreamAborts.Inc()
}

// RecordReload records a completed catalog reload and the resulting track count
func (m *Metrics) RecordReload(durationSeconds float64, tracks int) {
	m.CatalogReloads.Inc()
	m.ReloadDuration.Observe(durationSeconds)
	m.CatalogTracks.Set(float64(tracks))
}

// SetCatalogTracks sets the catalog size gauge
func (m *Metrics) SetCatalogTracks(count int) {
	m.CatalogTracks.Set(float64(count))
}

// RecordHTTPRequest records an admin API request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

func statusLabel(status int) string {
	switch status {
	case 200:
		return "200"
	case 404:
		return "404"
	case 500:
		return "500"
	default:
		return "other"
	}
}
