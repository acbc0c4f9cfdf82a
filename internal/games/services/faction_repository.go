package services

import (
	"context"
	"fmt"

	"github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Factions

func (r *Repository) InsertFaction(ctx context.Context, faction *models.Faction) error {
	if _, err := r.factions.InsertOne(ctx, faction); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("faction %q already exists: %w", faction.Name, tally.ErrConflict)
		}
		return fmt.Errorf("failed to insert faction: %w", err)
	}
	return nil
}

func (r *Repository) GetFaction(ctx context.Context, gameID, id string) (*models.Faction, error) {
	var faction models.Faction
	if err := r.factions.FindOne(ctx, bson.M{"_id": id, "game_id": gameID}).Decode(&faction); err != nil {
		return nil, notFound("faction", err)
	}
	return &faction, nil
}

func (r *Repository) FindFaction(ctx context.Context, gameID, name, kind string) (*models.Faction, error) {
	var faction models.Faction
	if err := r.factions.FindOne(ctx, bson.M{"game_id": gameID, "name": name, "kind": kind}).Decode(&faction); err != nil {
		return nil, notFound("faction", err)
	}
	return &faction, nil
}

func (r *Repository) ListFactions(ctx context.Context, gameID string) ([]models.Faction, error) {
	cursor, err := r.factions.Find(ctx, bson.M{"game_id": gameID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list factions: %w", err)
	}
	defer cursor.Close(ctx)

	factions := []models.Faction{}
	if err := cursor.All(ctx, &factions); err != nil {
		return nil, fmt.Errorf("failed to decode factions: %w", err)
	}
	return factions, nil
}

func (r *Repository) DeleteFaction(ctx context.Context, gameID, id string) error {
	res, err := r.factions.DeleteOne(ctx, bson.M{"_id": id, "game_id": gameID})
	if err != nil {
		return fmt.Errorf("failed to delete faction: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("faction %s: %w", id, tally.ErrNotFound)
	}
	return nil
}

func (r *Repository) SetWinningFaction(ctx context.Context, gameID, id string) error {
	res, err := r.factions.UpdateOne(ctx, bson.M{"_id": id, "game_id": gameID}, bson.M{"$set": bson.M{"winning": true}})
	if err != nil {
		return fmt.Errorf("failed to mark winning faction: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("faction %s: %w", id, tally.ErrNotFound)
	}
	return nil
}
