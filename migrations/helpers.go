package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// isIndexExistsError reports whether err only says an equivalent index is already there.
func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "IndexKeySpecsConflict") ||
		strings.Contains(msg, "IndexOptionsConflict")
}

// createIndexes creates indexes on a collection, tolerating ones that already exist.
func createIndexes(ctx context.Context, db *mongo.Database, collection string, indexes []mongo.IndexModel) error {
	if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil && !isIndexExistsError(err) {
		return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
	}
	return nil
}

func dropIndexes(ctx context.Context, db *mongo.Database, collections ...string) error {
	for _, name := range collections {
		if _, err := db.Collection(name).Indexes().DropAll(ctx); err != nil && !strings.Contains(err.Error(), "ns not found") {
			return fmt.Errorf("failed to drop indexes on %s: %w", name, err)
		}
	}
	return nil
}
