package domain

import "errors"

// ErrRoleEntryNotFound is returned by the role cache when no entry exists for a task.
var ErrRoleEntryNotFound = errors.New("role entry not found")

// ErrRoleCacheDivergence signals that the primary store and the role cache
// disagree about a task. It is never auto-healed.
var ErrRoleCacheDivergence = errors.New("role cache diverged from primary store")

// RoleEntry is the role cache projection of a task: who wrote it and who
// executes it. An empty ExecutorID means unassigned.
type RoleEntry struct {
	TaskID     int64
	AuthorID   string
	ExecutorID string
}

// IsAuthor reports whether userID authored the task.
func (e *RoleEntry) IsAuthor(userID string) bool {
	return e != nil && userID != "" && e.AuthorID == userID
}

// IsExecutor reports whether userID is the assigned executor. Always false
// for an unassigned task.
func (e *RoleEntry) IsExecutor(userID string) bool {
	return e != nil && userID != "" && e.ExecutorID != "" && e.ExecutorID == userID
}
