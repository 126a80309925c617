package ports

import (
	"context"

	"github.com/taskmanagement/task-system/internal/core/domain"
)

// AuthService registers users and signs them in. Both operations return a
// freshly issued session token.
type AuthService interface {
	SignUp(ctx context.Context, username, email, password string) (string, *domain.User, error)
	SignIn(ctx context.Context, email, password string) (string, *domain.User, error)
}

// TaskAuthorizer answers task-scoped authorization questions for a caller
// identified by email.
type TaskAuthorizer interface {
	IsAuthor(ctx context.Context, taskID int64, callerEmail string) (bool, error)
	IsExecutor(ctx context.Context, taskID int64, callerEmail string) (bool, error)
}
