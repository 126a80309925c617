package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/taskmanagement/task-system/internal/core/domain"
)

// Hash fields of a role entry. An empty executorId means unassigned.
const (
	fieldID         = "id"
	fieldAuthorID   = "authorId"
	fieldExecutorID = "executorId"
)

// updateExecutorScript sets the executor only when the entry already exists,
// so a missing entry is never created half-populated.
var updateExecutorScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'executorId', ARGV[1])
return 1
`)

// RoleCache keeps the author and executor of every task in a Redis hash.
// Key format: task_role:<task_id>
type RoleCache struct {
	client *redis.Client
}

// NewRoleCache creates a RoleCache wrapping the given Redis client.
func NewRoleCache(client *redis.Client) *RoleCache {
	return &RoleCache{client: client}
}

// AddTask writes the full entry for taskID, replacing any previous one.
func (c *RoleCache) AddTask(ctx context.Context, taskID int64, authorID string, executorID *string) error {
	if authorID == "" {
		return fmt.Errorf("role cache add task %d: author id is required", taskID)
	}
	executor := ""
	if executorID != nil {
		executor = *executorID
	}

	key := c.key(taskID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldID, strconv.FormatInt(taskID, 10),
			fieldAuthorID, authorID,
			fieldExecutorID, executor,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("role cache add task %d: %w", taskID, err)
	}
	return nil
}

// UpdateExecutor replaces the executor of an existing entry. A missing entry
// is reported as both domain.ErrRoleEntryNotFound and
// domain.ErrRoleCacheDivergence.
func (c *RoleCache) UpdateExecutor(ctx context.Context, taskID int64, executorID string) error {
	updated, err := updateExecutorScript.Run(ctx, c.client, []string{c.key(taskID)}, executorID).Int()
	if err != nil {
		return fmt.Errorf("role cache update executor of task %d: %w", taskID, err)
	}
	if updated == 0 {
		return fmt.Errorf("role cache update executor of task %d: %w",
			taskID, errors.Join(domain.ErrRoleEntryNotFound, domain.ErrRoleCacheDivergence))
	}
	return nil
}

// Lookup returns the entry for taskID or domain.ErrRoleEntryNotFound.
func (c *RoleCache) Lookup(ctx context.Context, taskID int64) (*domain.RoleEntry, error) {
	fields, err := c.client.HGetAll(ctx, c.key(taskID)).Result()
	if err != nil {
		return nil, fmt.Errorf("role cache lookup task %d: %w", taskID, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrRoleEntryNotFound
	}

	return &domain.RoleEntry{
		TaskID:     taskID,
		AuthorID:   fields[fieldAuthorID],
		ExecutorID: fields[fieldExecutorID],
	}, nil
}

func (c *RoleCache) key(taskID int64) string {
	return fmt.Sprintf("task_role:%d", taskID)
}
