package domain

import (
	"errors"
	"time"
)

// TaskStatus represents where a task is in its lifecycle.
type TaskStatus string

const (
	StatusWaiting   TaskStatus = "WAITING"
	StatusInProcess TaskStatus = "IN_PROCESS"
	StatusCompleted TaskStatus = "COMPLETED"
)

// TaskPriority is orthogonal to status: any priority may be set in any status.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "HIGH"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityLow    TaskPriority = "LOW"
)

var ErrTaskNotFound = errors.New("task not found")
var ErrInvalidTask = errors.New("invalid task")
var ErrForbidden = errors.New("access forbidden")

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProcess, StatusCompleted:
		return true
	}
	return false
}

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task is the primary-store aggregate. AuthorID never changes after creation;
// ExecutorID is only changed through executor reassignment.
type Task struct {
	ID         int64        `json:"id" bson:"_id"`
	Title      string       `json:"title" bson:"title"`
	Text       string       `json:"text" bson:"text"`
	Status     TaskStatus   `json:"status" bson:"status"`
	Priority   TaskPriority `json:"priority" bson:"priority"`
	AuthorID   string       `json:"author_id" bson:"author_id"`
	ExecutorID string       `json:"executor_id,omitempty" bson:"executor_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" bson:"updated_at"`
}

// HasExecutor reports whether the task is assigned.
func (t *Task) HasExecutor() bool {
	return t.ExecutorID != ""
}

// TaskPatch lists the fields one operation changes. Nil fields keep their
// stored value, so concurrent operations on different fields do not undo
// each other.
type TaskPatch struct {
	Title      *string
	Text       *string
	Status     *TaskStatus
	Priority   *TaskPriority
	ExecutorID *string
	UpdatedAt  time.Time
}
