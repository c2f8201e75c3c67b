// Package monitor exposes the Prometheus counters for the reconciliation core.
// Metrics are registered globally via promauto; tests measure increments.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monei_payments_processed_total",
		Help: "Reconciliation attempts by gateway status and outcome.",
	}, []string{"status", "outcome"})

	lockContentionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monei_lock_contention_total",
		Help: "Processing attempts rejected because the order lock was held.",
	})

	notificationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monei_notifications_rejected_total",
		Help: "Inbound notifications rejected before processing, by channel and reason.",
	}, []string{"channel", "reason"})
)

// RecordProcessed counts one reconciliation attempt
func RecordProcessed(status string, success bool) {
	outcome := "error"
	if success {
		outcome = "success"
	}
	paymentsProcessedTotal.WithLabelValues(status, outcome).Inc()
}

// RecordLockContention counts one rejected attempt due to lock contention
func RecordLockContention() {
	lockContentionTotal.Inc()
}

// RecordNotificationRejected counts one rejected inbound notification
func RecordNotificationRejected(channel, reason string) {
	notificationsRejectedTotal.WithLabelValues(channel, reason).Inc()
}

// GetPaymentsProcessedTotal exposes the counter vec for tests
func GetPaymentsProcessedTotal() *prometheus.CounterVec {
	return paymentsProcessedTotal
}

// GetLockContentionTotal exposes the counter for tests
func GetLockContentionTotal() prometheus.Counter {
	return lockContentionTotal
}

// GetNotificationsRejectedTotal exposes the counter vec for tests
func GetNotificationsRejectedTotal() *prometheus.CounterVec {
	return notificationsRejectedTotal
}
