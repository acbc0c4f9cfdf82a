package services

import (
	"context"
	"fmt"
	"time"

	"github.com/LoganMeitz/votefinder/internal/scheduler/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// executionRetention bounds how long run history is kept.
const executionRetention = 30 * 24 * time.Hour

// ExecutionStore persists run history.
type ExecutionStore interface {
	InsertExecution(ctx context.Context, exec *models.TaskExecution) error
	FinishExecution(ctx context.Context, exec *models.TaskExecution) error
	ListExecutions(ctx context.Context, taskName string, limit int) ([]models.TaskExecution, error)
}

// Repository stores executions in MongoDB.
type Repository struct {
	executions *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{executions: db.Collection(models.ExecutionsCollection)}
}

func (r *Repository) CreateIndexes(ctx context.Context) error {
	_, err := r.executions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_name", Value: 1}, {Key: "started_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "started_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(executionRetention.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler indexes: %w", err)
	}
	return nil
}

func (r *Repository) InsertExecution(ctx context.Context, exec *models.TaskExecution) error {
	if _, err := r.executions.InsertOne(ctx, exec); err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

func (r *Repository) FinishExecution(ctx context.Context, exec *models.TaskExecution) error {
	_, err := r.executions.ReplaceOne(ctx, bson.M{"_id": exec.ID}, exec)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	return nil
}

// ListExecutions returns the newest runs first; an empty taskName lists every task.
func (r *Repository) ListExecutions(ctx context.Context, taskName string, limit int) ([]models.TaskExecution, error) {
	filter := bson.M{}
	if taskName != "" {
		filter["task_name"] = taskName
	}
	cursor, err := r.executions.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer cursor.Close(ctx)

	execs := []models.TaskExecution{}
	if err := cursor.All(ctx, &execs); err != nil {
		return nil, fmt.Errorf("failed to decode executions: %w", err)
	}
	return execs, nil
}
