package ports

import (
	"context"

	"github.com/taskmanagement/task-system/internal/core/domain"
)

// Page selects a slice of a listing. Number is 0-based.
type Page struct {
	Number int
	Size   int
}

// TaskRepository is the primary store for tasks.
type TaskRepository interface {
	// Create assigns the next task id and inserts the task.
	Create(ctx context.Context, t *domain.Task) error
	FindByID(ctx context.Context, id int64) (*domain.Task, error)
	// Patch writes only the fields set in patch.
	Patch(ctx context.Context, id int64, patch domain.TaskPatch) error
	Delete(ctx context.Context, id int64) error
	ListByAuthor(ctx context.Context, authorID string, page Page) ([]*domain.Task, error)
	ListByExecutor(ctx context.Context, executorID string, page Page) ([]*domain.Task, error)
}

// CommentRepository stores task comments.
type CommentRepository interface {
	Create(ctx context.Context, c *domain.Comment) error
	FindByID(ctx context.Context, id int64) (*domain.Comment, error)
	Save(ctx context.Context, c *domain.Comment) error
	Delete(ctx context.Context, id int64) error
	ListByTask(ctx context.Context, taskID int64) ([]*domain.Comment, error)
	DeleteByTask(ctx context.Context, taskID int64) error
}

// TaskEventRepository persists the task audit trail.
type TaskEventRepository interface {
	Insert(ctx context.Context, e *domain.TaskEvent) error
	ListByTask(ctx context.Context, taskID int64) ([]*domain.TaskEvent, error)
}
