package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hireloop_notifications_created_total",
			Help: "Total number of notifications persisted",
		},
		[]string{"type"},
	)

	// NotificationsSuppressed counts creations skipped by a preference gate.
	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hireloop_notifications_suppressed_total",
			Help: "Total number of notifications suppressed by user preference",
		},
		[]string{"type"},
	)

	// NotificationsPushed counts live websocket deliveries by result (success|failure).
	NotificationsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hireloop_notifications_pushed_total",
			Help: "Total number of live push deliveries attempted",
		},
		[]string{"result"},
	)

	// NotificationsQueued counts snapshots appended to offline backlogs.
	NotificationsQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hireloop_notifications_queued_total",
			Help: "Total number of notifications queued for offline recipients",
		},
	)

	// NotificationsReplayed counts backlog entries replayed on reconnect.
	NotificationsReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hireloop_notifications_replayed_total",
			Help: "Total number of queued notifications replayed to reconnecting recipients",
		},
	)

	// NotificationsReaped counts rows removed by the expiry sweep.
	NotificationsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hireloop_notifications_reaped_total",
			Help: "Total number of expired notifications deleted",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hireloop_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
