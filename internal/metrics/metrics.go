package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockpulse_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// AlertsTriggered counts alert state transitions made by the monitor.
	AlertsTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockpulse_alerts_triggered_total",
			Help: "Number of price alerts transitioned to triggered",
		},
	)

	// NotificationsDispatched counts per-channel delivery outcomes.
	NotificationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_notifications_dispatched_total",
			Help: "Number of notification delivery attempts by method and outcome",
		},
		[]string{"method", "status"},
	)

	// DeliveriesRetried counts sweep retry attempts.
	DeliveriesRetried = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_deliveries_retried_total",
			Help: "Number of sweep redelivery attempts by outcome",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(
		HTTPRequests,
		RequestDuration,
		AlertsTriggered,
		NotificationsDispatched,
		DeliveriesRetried,
	)
}
