// Package metrics defines the custom Prometheus metrics of the TaskFlow API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Collectors are created unregistered; Register attaches them to the
// registry that backs the /metrics handler.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskflow"

// ── Identity metrics ──────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive", "throttled" or "error"
var LoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts tokens seen by the authentication gateway.
// Label:
//   - result: "valid", "invalid" or "absent"
var TokenValidationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of request tokens inspected, by result.",
	},
	[]string{"result"},
)

// AuthorizationDecisionsTotal counts policy decisions.
// Labels:
//   - operation: the guarded operation (e.g. "create_task")
//   - decision: "allow", "unauthenticated" or "forbidden"
var AuthorizationDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization decisions, by operation and outcome.",
	},
	[]string{"operation", "decision"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TasksCreatedTotal counts tasks created by managers.
// Label:
//   - priority: "LOW", "MEDIUM" or "HIGH"
var TasksCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by priority.",
	},
	[]string{"priority"},
)

// TaskUpdatesTotal counts member updates.
// Label:
//   - field: "status" or "priority"
var TaskUpdatesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_updates_total",
		Help:      "Total number of task updates applied by members, by field.",
	},
	[]string{"field"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts outbound email attempts.
// Label:
//   - result: "sent", "failed" or "dropped" (queue full)
var NotificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notification deliveries, by result.",
	},
	[]string{"result"},
)

// NotificationQueueDepth tracks messages waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of messages pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDuration measures a single delivery attempt.
var NotificationDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of a single notification delivery attempt.",
		Buckets:   prometheus.DefBuckets,
	},
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		LoginsTotal,
		TokenValidationsTotal,
		AuthorizationDecisionsTotal,
		TasksCreatedTotal,
		TaskUpdatesTotal,
		NotificationsTotal,
		NotificationQueueDepth,
		NotificationDuration,
	}
}

// Register adds every TaskFlow collector to reg. Collectors already present
// in reg are skipped, so building several routers on one registry is safe.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
