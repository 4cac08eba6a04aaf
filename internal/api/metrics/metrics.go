// Package metrics defines the custom Prometheus metrics of the GoodMove API.
// It is the single source of truth for metric names, labels and help strings.
// All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "goodmove"

// ── Webhook metrics ───────────────────────────────────────────────────────────

// WebhookEventsTotal counts processor webhook deliveries.
// Labels:
//   - kind: the processor event type (e.g. "invoice.payment_succeeded")
//   - result: "processed", "failed", "ignored" (unhandled kind) or "rejected" (bad signature)
var WebhookEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Total number of payment processor webhook deliveries.",
	},
	[]string{"kind", "result"},
)

// WebhookQueueDepth tracks pending events per dispatcher worker.
var WebhookQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "webhook_queue_depth",
		Help:      "Current number of webhook events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// WebhookProcessingDuration measures dequeue-to-applied time of one event.
var WebhookProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "webhook_processing_duration_seconds",
		Help:      "Duration of webhook event processing inside a dispatcher worker.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// ── Billing metrics ───────────────────────────────────────────────────────────

// BillingOperationsTotal counts client-initiated billing operations.
// Labels:
//   - operation: "create_customer", "create_subscription", "confirm_payment", "cancel"
//   - result: "ok" or the error kind (e.g. "billing", "plan_resolution")
var BillingOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "billing_operations_total",
		Help:      "Total number of billing operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Account and load metrics ──────────────────────────────────────────────────

// RegistrationsTotal counts new accounts.
// Label:
//   - referred: "true" when a referral code was supplied
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registered users.",
	},
	[]string{"referred"},
)

// LoadsSavedTotal counts load save attempts.
// Label:
//   - result: "saved", "gated" (no active subscription) or "failed"
var LoadsSavedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loads_saved_total",
		Help:      "Total number of load save attempts, by result.",
	},
	[]string{"result"},
)

// RemindersCreatedTotal counts stored reminders.
var RemindersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_created_total",
		Help:      "Total number of reminders created.",
	},
)
