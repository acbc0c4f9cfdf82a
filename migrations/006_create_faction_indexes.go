package migrations

import (
	"context"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "006_create_faction_indexes",
		Description: "Create the unique name and kind index for game factions",
		Up:          up006,
		Down:        down006,
	})
}

func up006(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, gamemodels.FactionsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "game_id", Value: 1}, {Key: "name", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}

func down006(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db, gamemodels.FactionsCollection)
}
