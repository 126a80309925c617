package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
)

const collectionTaskEvents = "task_events"

// TaskEventRepository implements ports.TaskEventRepository using the
// task_events audit collection.
type TaskEventRepository struct {
	col *mongo.Collection
}

func NewTaskEventRepository(db *mongo.Database) ports.TaskEventRepository {
	return &TaskEventRepository{col: db.Collection(collectionTaskEvents)}
}

// Insert persists an audit entry, assigning a random id when none is set.
func (r *TaskEventRepository) Insert(ctx context.Context, e *domain.TaskEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	_, err := r.col.InsertOne(ctx, e)
	return err
}

// ListByTask returns the audit trail of a task in the order it happened.
func (r *TaskEventRepository) ListByTask(ctx context.Context, taskID int64) ([]*domain.TaskEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"task_id": taskID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find task events: %w", err)
	}
	defer cur.Close(ctx)

	events := []*domain.TaskEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode task events: %w", err)
	}
	return events, nil
}
