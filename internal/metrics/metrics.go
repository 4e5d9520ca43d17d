package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grantline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Timeline render latency (seconds)
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grantline_render_duration_seconds",
			Help:    "Time spent laying out one timeline frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~400ms
		},
		[]string{"zoom"},
	)

	// Database query latency (seconds)
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grantline_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	ProgressWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grantline_progress_writes_total",
			Help: "Progress date writes produced by dragging",
		},
		[]string{"status"}, // status: success, failed
	)

	ActiveSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grantline_active_subscriptions",
			Help: "Live store subscriptions",
		},
		[]string{"kind"}, // kind: grants, milestones
	)

	ActiveViews = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "grantline_active_views",
			Help: "Mounted timeline views served over HTTP",
		},
	)
)

// RecordHTTPRequestDuration records the latency of one HTTP request
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordRender records the latency of one render pass
func RecordRender(zoom string, duration time.Duration) {
	RenderDuration.WithLabelValues(zoom).Observe(duration.Seconds())
}

// RecordDBQueryDuration records the latency of one query
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementProgressWrite counts a progress write by outcome
func IncrementProgressWrite(status string) {
	ProgressWrites.WithLabelValues(status).Inc()
}

// SubscriptionOpened and SubscriptionClosed track live subscriptions
func SubscriptionOpened(kind string) {
	ActiveSubscriptions.WithLabelValues(kind).Inc()
}

func SubscriptionClosed(kind string) {
	ActiveSubscriptions.WithLabelValues(kind).Dec()
}
