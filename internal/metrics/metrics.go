package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_notifications_ingested_total",
			Help: "Total number of notifications added to the aggregator",
		},
		[]string{"source", "type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_push_events_dropped_total",
			Help: "Total number of push events dropped before reaching the aggregator",
		},
		[]string{"transport", "reason"},
	)

	UnreadNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admin_notifications_unread",
			Help: "Number of unread notifications currently held by the aggregator",
		},
	)

	PushConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admin_push_connection_state",
			Help: "Push channel state: 0 disconnected, 1 connected, 2 retries exhausted",
		},
	)

	PushReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_push_reconnect_attempts_total",
			Help: "Total number of push channel reconnection attempts",
		},
	)

	ConsultationFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_consultation_fetch_failures_total",
			Help: "Total number of failed consultation bulk fetches",
		},
	)
)
