package ports

import (
	"context"

	"github.com/taskmanagement/task-system/internal/core/domain"
)

// RoleCache is the task-id keyed shadow of task authorship used for
// authorization decisions.
type RoleCache interface {
	// AddTask writes the entry for a newly created task. executorID may be nil.
	AddTask(ctx context.Context, taskID int64, authorID string, executorID *string) error
	// UpdateExecutor changes only the executor of an existing entry. A missing
	// entry yields an error matching both domain.ErrRoleEntryNotFound and
	// domain.ErrRoleCacheDivergence.
	UpdateExecutor(ctx context.Context, taskID int64, executorID string) error
	// Lookup returns domain.ErrRoleEntryNotFound when no entry exists.
	Lookup(ctx context.Context, taskID int64) (*domain.RoleEntry, error)
}
