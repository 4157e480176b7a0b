package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification pipeline metrics
var (
	NotificationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notification records created",
		},
		[]string{"type"},
	)

	RealtimeDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_deliveries_total",
			Help: "Total number of realtime delivery attempts by outcome",
		},
		[]string{"status"},
	)

	RealtimeSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_sessions_active",
			Help: "Number of currently connected websocket sessions",
		},
	)

	PushDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Total number of web push delivery attempts by outcome",
		},
		[]string{"status"},
	)

	PushSubscriptionsSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_subscriptions_saved_total",
			Help: "Total number of push subscription save operations",
		},
	)
)
