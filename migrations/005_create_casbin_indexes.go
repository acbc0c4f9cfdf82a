package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const casbinPoliciesCollection = "casbin_policies"

func init() {
	Register(Migration{
		Version:     "005_create_casbin_indexes",
		Description: "Create lookup indexes for casbin_policies",
		Up:          up005,
		Down:        down005,
	})
}

func up005(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, casbinPoliciesCollection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ptype", Value: 1}, {Key: "v0", Value: 1}}},
		{Keys: bson.D{{Key: "ptype", Value: 1}, {Key: "v1", Value: 1}}},
	})
}

func down005(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, casbinPoliciesCollection)
}
