package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session projection metrics
	ProjectionsTotal  *prometheus.CounterVec
	SessionsEmitted   prometheus.Counter
	TabsEmitted       prometheus.Counter
	SyncRefreshes     prometheus.Counter
	SyncUnavailable   prometheus.Counter

	// Install flow metrics
	ApprovalsPending prometheus.Gauge
	InstallsTotal    *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates and registers the metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabmirror_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tabmirror_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ProjectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabmirror_session_projections_total",
				Help: "Total projection passes by ordering mode",
			},
			[]string{"mode"},
		),
		SessionsEmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tabmirror_sessions_emitted_total",
				Help: "Total displayable sessions emitted",
			},
		),
		TabsEmitted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tabmirror_tabs_emitted_total",
				Help: "Total displayable tabs emitted",
			},
		),
		SyncRefreshes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tabmirror_sync_refreshes_total",
				Help: "Total sync refresh requests",
			},
		),
		SyncUnavailable: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tabmirror_sync_unavailable_total",
				Help: "Total requests rejected because sync was inactive",
			},
		),

		ApprovalsPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabmirror_install_approvals_pending",
				Help: "Pending install approvals awaiting completion",
			},
		),
		InstallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabmirror_installs_total",
				Help: "Total install completions by status",
			},
			[]string{"status"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabmirror_ws_connections",
				Help: "Active WebSocket connections",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tabmirror_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProjection records one projection pass.
func (m *Metrics) RecordProjection(mode string, sessions, tabs int) {
	m.ProjectionsTotal.WithLabelValues(mode).Inc()
	m.SessionsEmitted.Add(float64(sessions))
	m.TabsEmitted.Add(float64(tabs))
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
