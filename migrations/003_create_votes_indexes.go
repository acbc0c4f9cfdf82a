package migrations

import (
	"context"

	votemodels "github.com/LoganMeitz/votefinder/internal/votes/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "003_create_votes_indexes",
		Description: "Create indexes for the vote ledger",
		Up:          up003,
		Down:        down003,
	})
}

func up003(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, votemodels.VotesCollection, []mongo.IndexModel{
		{
			// one declaration per position in the thread
			Keys: bson.D{
				{Key: "game_id", Value: 1},
				{Key: "order.post_sequence", Value: 1},
				{Key: "order.index", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "disposition", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "target_id", Value: 1}}},
	})
}

func down003(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, votemodels.VotesCollection)
}
