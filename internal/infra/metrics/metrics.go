package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	leadsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Total number of leads accepted by the intake endpoint",
		},
	)

	leadsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_deleted_total",
			Help: "Total number of leads hard-deleted by admins",
		},
	)

	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_store_errors_total",
			Help: "Total number of lead store failures by operation and kind",
		},
		[]string{"op", "kind"},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_events_published_total",
			Help: "Total number of lead.created events handed to the broker",
		},
		[]string{"result"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_notifications_total",
			Help: "Total number of new-lead notifications processed by the worker",
		},
		[]string{"result"},
	)
)

func RecordLeadCaptured() {
	leadsCaptured.Inc()
}

func RecordLeadDeleted() {
	leadsDeleted.Inc()
}

func RecordStoreError(op, kind string) {
	storeErrors.WithLabelValues(op, kind).Inc()
}

func RecordEventPublished(result string) {
	eventsPublished.WithLabelValues(result).Inc()
}

func RecordNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}
