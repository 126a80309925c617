package ports

import (
	"context"
	"time"

	"github.com/taskmanagement/task-system/internal/core/domain"
)

// CreateTaskInput carries the data needed to create a task. AuthorName
// defaults to the caller when empty; an unknown ExecutorName leaves the task
// unassigned.
type CreateTaskInput struct {
	Title        string
	Text         string
	AuthorName   string
	ExecutorName string
	Status       domain.TaskStatus
	Priority     domain.TaskPriority
}

// UpdateTaskInput carries the editable fields of a task.
type UpdateTaskInput struct {
	Title string
	Text  string
}

// CommentView is a comment with its author resolved to a username.
type CommentView struct {
	ID         int64
	TaskID     int64
	Text       string
	AuthorName string
	CreatedAt  time.Time
}

// TaskDetail is the full task view with usernames resolved.
type TaskDetail struct {
	ID           int64
	Title        string
	Text         string
	Status       string
	Priority     string
	AuthorName   string
	ExecutorName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Comments     []CommentView
}

// TaskService defines the task use cases. Callers are expected to have passed
// the task role guard before invoking a task-scoped operation.
type TaskService interface {
	Create(ctx context.Context, caller *domain.Caller, in CreateTaskInput) (*TaskDetail, error)
	Get(ctx context.Context, taskID int64) (*TaskDetail, error)
	Update(ctx context.Context, caller *domain.Caller, taskID int64, in UpdateTaskInput) error
	Delete(ctx context.Context, caller *domain.Caller, taskID int64) error
	ListByAuthor(ctx context.Context, username string, page Page) ([]*TaskDetail, error)
	ListByExecutor(ctx context.Context, username string, page Page) ([]*TaskDetail, error)

	MarkInProcess(ctx context.Context, caller *domain.Caller, taskID int64) error
	MarkCompleted(ctx context.Context, caller *domain.Caller, taskID int64) error
	SetPriorityLow(ctx context.Context, caller *domain.Caller, taskID int64) error
	SetPriorityHigh(ctx context.Context, caller *domain.Caller, taskID int64) error
	ReassignExecutor(ctx context.Context, caller *domain.Caller, taskID int64, executorName string) error
	ResyncRoles(ctx context.Context, caller *domain.Caller, taskID int64) error

	History(ctx context.Context, taskID int64) ([]*domain.TaskEvent, error)
}

// CommentService defines the comment use cases. Comment ids are scoped to
// their task: a comment requested under another task is not found.
type CommentService interface {
	Create(ctx context.Context, caller *domain.Caller, taskID int64, text string) (*CommentView, error)
	Get(ctx context.Context, taskID, commentID int64) (*CommentView, error)
	List(ctx context.Context, taskID int64) ([]CommentView, error)
	Update(ctx context.Context, caller *domain.Caller, taskID, commentID int64, text string) error
	Delete(ctx context.Context, caller *domain.Caller, taskID, commentID int64) error
}
