package migrations

import (
	"context"

	playermodels "github.com/LoganMeitz/votefinder/internal/players/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "001_create_players_indexes",
		Description: "Create indexes for players and player_aliases",
		Up:          up001,
		Down:        down001,
	})
}

func up001(ctx context.Context, db *mongo.Database) error {
	if err := createIndexes(ctx, db, playermodels.PlayersCollection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name_lower", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "forum_user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}); err != nil {
		return err
	}
	return createIndexes(ctx, db, playermodels.AliasesCollection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "player_id", Value: 1}, {Key: "text_lower", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "text_lower", Value: 1}}},
	})
}

func down001(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, playermodels.PlayersCollection, playermodels.AliasesCollection)
}
