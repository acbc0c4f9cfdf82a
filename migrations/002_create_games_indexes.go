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
		Version:     "002_create_games_indexes",
		Description: "Create indexes for games, rosters, days, posts and status updates",
		Up:          up002,
		Down:        down002,
	})
}

func up002(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	steps := []struct {
		collection string
		indexes    []mongo.IndexModel
	}{
		{gamemodels.GamesCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "thread_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "last_post_at", Value: 1}}},
			{Keys: bson.D{{Key: "moderator_id", Value: 1}}},
		}},
		{gamemodels.PlayerStatesCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "player_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "player_id", Value: 1}}},
		}},
		{gamemodels.GameDaysCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "day_number", Value: 1}}, Options: unique},
		}},
		{gamemodels.PostsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "sequence", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "forum_post_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "page_number", Value: 1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
		}},
		{gamemodels.StatusUpdatesCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		}},
	}
	for _, s := range steps {
		if err := createIndexes(ctx, db, s.collection, s.indexes); err != nil {
			return err
		}
	}
	return nil
}

func down002(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db,
		gamemodels.GamesCollection,
		gamemodels.PlayerStatesCollection,
		gamemodels.GameDaysCollection,
		gamemodels.PostsCollection,
		gamemodels.StatusUpdatesCollection,
	)
}
