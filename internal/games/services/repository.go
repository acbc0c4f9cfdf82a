package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles persistence for games and everything hanging off them.
type Repository struct {
	games    *mongo.Collection
	states   *mongo.Collection
	days     *mongo.Collection
	posts    *mongo.Collection
	updates  *mongo.Collection
	factions *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		games:    db.Collection(models.GamesCollection),
		states:   db.Collection(models.PlayerStatesCollection),
		days:     db.Collection(models.GameDaysCollection),
		posts:    db.Collection(models.PostsCollection),
		updates:  db.Collection(models.StatusUpdatesCollection),
		factions: db.Collection(models.FactionsCollection),
	}
}

func (r *Repository) CreateIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		r.games: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "thread_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "last_post_at", Value: 1}}},
			{Keys: bson.D{{Key: "moderator_id", Value: 1}}},
		},
		r.states: {
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "player_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "player_id", Value: 1}}},
		},
		r.days: {
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "day_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		r.posts: {
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "sequence", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "forum_post_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "page_number", Value: 1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}}},
		},
		r.updates: {
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		r.factions: {
			{Keys: bson.D{{Key: "game_id", Value: 1}, {Key: "name", Value: 1}, {Key: "kind", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func notFound(what string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, tally.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// Games

func (r *Repository) InsertGame(ctx context.Context, game *models.Game) error {
	if _, err := r.games.InsertOne(ctx, game); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("game for thread %s: %w", game.ThreadID, tally.ErrConflict)
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (r *Repository) GetGame(ctx context.Context, filter bson.M) (*models.Game, error) {
	var game models.Game
	if err := r.games.FindOne(ctx, filter).Decode(&game); err != nil {
		return nil, notFound("game", err)
	}
	return &game, nil
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.games.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

// UpdateGame applies set to the game and returns the new document.
func (r *Repository) UpdateGame(ctx context.Context, id string, set, unset bson.M) (*models.Game, error) {
	if set == nil {
		set = bson.M{}
	}
	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var game models.Game
	err := r.games.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&game)
	if err != nil {
		return nil, notFound("game", err)
	}
	return &game, nil
}

// TransitionState moves the game from one state to another, failing with ErrConflict when the
// game is not in the expected state.
func (r *Repository) TransitionState(ctx context.Context, id string, from, to models.State) (*models.Game, error) {
	var game models.Game
	err := r.games.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "state": from},
		bson.M{"$set": bson.M{"state": to, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&game)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("game is not %s: %w", from, tally.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update game state: %w", err)
	}
	return &game, nil
}

func (r *Repository) ListGames(ctx context.Context, state models.State, page, limit int) ([]models.Game, int64, error) {
	filter := bson.M{}
	if state != "" {
		filter["state"] = state
	}
	total, err := r.games.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count games: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.games.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list games: %w", err)
	}
	defer cursor.Close(ctx)

	games := []models.Game{}
	if err := cursor.All(ctx, &games); err != nil {
		return nil, 0, fmt.Errorf("failed to decode games: %w", err)
	}
	return games, total, nil
}

// StaleGames returns started games whose last post is older than cutoff.
func (r *Repository) StaleGames(ctx context.Context, cutoff time.Time) ([]models.Game, error) {
	cursor, err := r.games.Find(ctx, bson.M{
		"state":        models.StateStarted,
		"last_post_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find stale games: %w", err)
	}
	defer cursor.Close(ctx)

	var games []models.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("failed to decode games: %w", err)
	}
	return games, nil
}

// ClaimPostSequences reserves n consecutive post sequences and returns the first one.
func (r *Repository) ClaimPostSequences(ctx context.Context, gameID string, n int64, lastPostAt time.Time) (int64, error) {
	var game models.Game
	err := r.games.FindOneAndUpdate(ctx,
		bson.M{"_id": gameID},
		bson.M{
			"$inc": bson.M{"last_post_sequence": n},
			"$max": bson.M{"last_post_at": lastPostAt},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&game)
	if err != nil {
		return 0, notFound("game", err)
	}
	return game.LastPostSequence - n + 1, nil
}

// Status updates

func (r *Repository) InsertStatusUpdate(ctx context.Context, update *models.StatusUpdate) error {
	if _, err := r.updates.InsertOne(ctx, update); err != nil {
		return fmt.Errorf("failed to insert status update: %w", err)
	}
	return nil
}

// ListStatusUpdates returns the newest updates first; gameID "" lists every game.
func (r *Repository) ListStatusUpdates(ctx context.Context, gameID string, limit int) ([]models.StatusUpdate, error) {
	filter := bson.M{}
	if gameID != "" {
		filter["game_id"] = gameID
	}
	cursor, err := r.updates.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to list status updates: %w", err)
	}
	defer cursor.Close(ctx)

	updates := []models.StatusUpdate{}
	if err := cursor.All(ctx, &updates); err != nil {
		return nil, fmt.Errorf("failed to decode status updates: %w", err)
	}
	return updates, nil
}
