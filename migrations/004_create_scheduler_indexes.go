package migrations

import (
	"context"

	schedmodels "github.com/LoganMeitz/votefinder/internal/scheduler/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "004_create_scheduler_indexes",
		Description: "Create indexes for scheduler_executions with a 30 day TTL",
		Up:          up004,
		Down:        down004,
	})
}

func up004(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, schedmodels.ExecutionsCollection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_name", Value: 1}, {Key: "started_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "started_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(30 * 24 * 60 * 60),
		},
	})
}

func down004(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, schedmodels.ExecutionsCollection)
}
