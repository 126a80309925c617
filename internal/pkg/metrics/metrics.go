// Package metrics defines and registers all custom Prometheus metrics for the
// task management API. It is the single source of truth for metric names,
// labels, and help strings.
//
// All metrics are registered with the default Prometheus registry at package
// init via promauto; the /metrics route exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskmgmt"

// ── Authentication metrics ───────────────────────────────────────────────────

// AuthenticationsTotal counts authentication interceptor outcomes.
// Label:
//   - result: "authenticated", "anonymous", "invalid_token", "unknown_identity" or "error"
var AuthenticationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentications_total",
		Help:      "Total number of requests seen by the authentication interceptor, by outcome.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts session tokens issued.
// Label:
//   - reason: "sign_up" or "sign_in"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of session tokens issued.",
	},
	[]string{"reason"},
)

// ── Authorization metrics ────────────────────────────────────────────────────

// AuthorizationDecisionsTotal counts task role guard decisions.
// Labels:
//   - roles: the roles the guard accepts (e.g. "author", "author|executor")
//   - result: "permit", "deny" or "error"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of task-scoped authorization decisions.",
	},
	[]string{"roles", "result"},
)

// ── Role cache metrics ───────────────────────────────────────────────────────

// RoleCacheWritesTotal counts role cache writes.
// Labels:
//   - op: "add_task" or "update_executor"
//   - result: "ok" or "error"
var RoleCacheWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_cache_writes_total",
		Help:      "Total number of role cache writes, by operation and result.",
	},
	[]string{"op", "result"},
)

// RoleCacheDivergenceTotal counts operations that left the primary store and
// the role cache disagreeing. Any non-zero rate needs an operator.
// Label:
//   - op: the lifecycle operation that diverged (e.g. "create", "reassign_executor")
var RoleCacheDivergenceTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_cache_divergence_total",
		Help:      "Total number of primary store / role cache divergences.",
	},
	[]string{"op"},
)

// ── Task metrics ─────────────────────────────────────────────────────────────

// TasksCreatedTotal counts newly created tasks.
// Label:
//   - priority: initial priority
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by initial priority.",
	},
	[]string{"priority"},
)

// TaskTransitionsTotal counts status and priority changes.
// Labels:
//   - field: "status" or "priority"
//   - value: the value assigned
var TaskTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_transitions_total",
		Help:      "Total number of task status/priority assignments.",
	},
	[]string{"field", "value"},
)

// ── Audit trail metrics ──────────────────────────────────────────────────────

// TaskEventsQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var TaskEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "task_events_queue_depth",
		Help:      "Current number of task events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// TaskEventsDroppedTotal counts audit events dropped because a worker channel was full.
var TaskEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_events_dropped_total",
		Help:      "Total number of task events dropped on a full dispatcher queue.",
	},
)
