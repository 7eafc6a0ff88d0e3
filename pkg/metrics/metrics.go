package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetdesk_notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	// NotificationsBatched counts notifications grouped into batches.
	NotificationsBatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetdesk_notifications_batched_total",
			Help: "Total number of notifications assigned a batch",
		},
	)

	// NotificationsCleaned counts rows removed by the retention job.
	NotificationsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetdesk_notifications_cleaned_total",
			Help: "Total number of read notifications removed by retention cleanup",
		},
	)

	// NotificationsReactivated counts snoozed rows returned to unread.
	NotificationsReactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetdesk_notifications_reactivated_total",
			Help: "Total number of snoozed notifications reactivated",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assetdesk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
