package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
)

// AuthorizationService evaluates the author/executor predicates against the
// role cache. It never reads the primary task store.
type AuthorizationService struct {
	users ports.UserRepository
	roles ports.RoleCache
}

func NewAuthorizationService(users ports.UserRepository, roles ports.RoleCache) *AuthorizationService {
	return &AuthorizationService{users: users, roles: roles}
}

// IsAuthor reports whether the user registered under callerEmail authored
// the task. An unknown caller yields domain.ErrUserNotFound; a task without a
// role entry yields false.
func (s *AuthorizationService) IsAuthor(ctx context.Context, taskID int64, callerEmail string) (bool, error) {
	userID, entry, err := s.resolve(ctx, taskID, callerEmail)
	if err != nil || entry == nil {
		return false, err
	}
	return entry.IsAuthor(userID), nil
}

// IsExecutor reports whether the user registered under callerEmail is the
// task's executor. Unassigned tasks have no executor.
func (s *AuthorizationService) IsExecutor(ctx context.Context, taskID int64, callerEmail string) (bool, error) {
	userID, entry, err := s.resolve(ctx, taskID, callerEmail)
	if err != nil || entry == nil {
		return false, err
	}
	return entry.IsExecutor(userID), nil
}

func (s *AuthorizationService) resolve(ctx context.Context, taskID int64, callerEmail string) (string, *domain.RoleEntry, error) {
	user, err := s.users.FindByEmail(ctx, callerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrUserNotFound
		}
		return "", nil, fmt.Errorf("authorize: resolve caller: %w", err)
	}

	entry, err := s.roles.Lookup(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleEntryNotFound) {
			return user.ID, nil, nil
		}
		return "", nil, fmt.Errorf("authorize: role lookup for task %d: %w", taskID, err)
	}
	return user.ID, entry, nil
}
