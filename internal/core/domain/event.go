package domain

import "time"

// TaskAction names a recorded change to a task.
type TaskAction string

const (
	ActionCreated          TaskAction = "created"
	ActionUpdated          TaskAction = "updated"
	ActionDeleted          TaskAction = "deleted"
	ActionStatusChanged    TaskAction = "status_changed"
	ActionPriorityChanged  TaskAction = "priority_changed"
	ActionExecutorAssigned TaskAction = "executor_assigned"
	ActionRolesResynced    TaskAction = "roles_resynced"
)

// TaskEvent is an entry in a task's audit trail.
type TaskEvent struct {
	ID         string     `json:"id" bson:"_id"`
	TaskID     int64      `json:"task_id" bson:"task_id"`
	Action     TaskAction `json:"action" bson:"action"`
	ActorID    string     `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	Detail     string     `json:"detail,omitempty" bson:"detail,omitempty"`
	OccurredAt time.Time  `json:"occurred_at" bson:"occurred_at"`
}
