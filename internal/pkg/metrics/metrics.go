// Package metrics defines the custom Prometheus metrics of the inventory API.
// Metrics register with the default registry at package init through
// promauto, and are served by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inventory"

// ── Equipment metrics ─────────────────────────────────────────────────────────

// EquipmentOperationsTotal counts successful equipment writes.
// Label:
//   - operation: "create", "update", "delete"
var EquipmentOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "equipment_operations_total",
		Help:      "Total number of successful equipment writes, by operation.",
	},
	[]string{"operation"},
)

// SerialConflictsTotal counts writes rejected because the serial number was taken.
var SerialConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "serial_conflicts_total",
		Help:      "Total number of equipment writes rejected for a duplicate serial number.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthorizationDeniedTotal counts requests stopped by the authorization gate.
// Label:
//   - reason: "unauthenticated" or "forbidden"
var AuthorizationDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denied_total",
		Help:      "Total number of requests denied by the authorization gate.",
	},
	[]string{"reason"},
)

// ── Audit stream metrics ──────────────────────────────────────────────────────

// AuditEventsTotal counts activity-stream events by outcome.
// Label:
//   - result: "stored", "failed", "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of equipment audit events, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
