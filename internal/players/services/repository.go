package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/LoganMeitz/votefinder/internal/players/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles player and alias persistence.
type Repository struct {
	players *mongo.Collection
	aliases *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		players: db.Collection(models.PlayersCollection),
		aliases: db.Collection(models.AliasesCollection),
	}
}

// CreateIndexes mirrors the players/aliases migration so tests and fresh databases agree.
func (r *Repository) CreateIndexes(ctx context.Context) error {
	_, err := r.players.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name_lower", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "forum_user_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create player indexes: %w", err)
	}

	_, err = r.aliases.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "player_id", Value: 1}, {Key: "text_lower", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "text_lower", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create alias indexes: %w", err)
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, player *models.Player) error {
	now := time.Now().UTC()
	player.CreatedAt = now
	player.UpdatedAt = now
	if _, err := r.players.InsertOne(ctx, player); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("player %q: %w", player.Name, tally.ErrConflict)
		}
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*models.Player, error) {
	var player models.Player
	err := r.players.FindOne(ctx, filter).Decode(&player)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("player: %w", tally.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return &player, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repository) GetByName(ctx context.Context, name string) (*models.Player, error) {
	return r.findOne(ctx, bson.M{"name_lower": strings.ToLower(strings.TrimSpace(name))})
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Player, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *Repository) GetAnonymous(ctx context.Context) (*models.Player, error) {
	return r.findOne(ctx, bson.M{"anonymous": true})
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.players.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

// GetMany loads players by id; missing ids are skipped.
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]models.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.players.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	defer cursor.Close(ctx)

	var players []models.Player
	if err := cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("failed to decode players: %w", err)
	}
	return players, nil
}

// List returns one page of players sorted by name, optionally filtered by a name fragment.
func (r *Repository) List(ctx context.Context, search string, page, limit int) ([]models.Player, int64, error) {
	filter := bson.M{}
	if search = strings.TrimSpace(search); search != "" {
		filter["name_lower"] = bson.M{"$regex": regexp.QuoteMeta(strings.ToLower(search))}
	}

	total, err := r.players.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count players: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name_lower", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.players.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list players: %w", err)
	}
	defer cursor.Close(ctx)

	players := []models.Player{}
	if err := cursor.All(ctx, &players); err != nil {
		return nil, 0, fmt.Errorf("failed to decode players: %w", err)
	}
	return players, total, nil
}

// TouchLastPost advances last_post_at, never moving it backwards.
func (r *Repository) TouchLastPost(ctx context.Context, id string, at time.Time) error {
	_, err := r.players.UpdateOne(ctx,
		bson.M{"_id": id, "$or": bson.A{
			bson.M{"last_post_at": bson.M{"$exists": false}},
			bson.M{"last_post_at": bson.M{"$lt": at}},
		}},
		bson.M{"$set": bson.M{"last_post_at": at, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update last post of %s: %w", id, err)
	}
	return nil
}

// Aliases

// UpsertAlias records text for the player unless the same spelling is already there.
func (r *Repository) UpsertAlias(ctx context.Context, alias *models.Alias) error {
	alias.TextLower = strings.ToLower(strings.TrimSpace(alias.Text))
	_, err := r.aliases.UpdateOne(ctx,
		bson.M{"player_id": alias.PlayerID, "text_lower": alias.TextLower},
		bson.M{"$setOnInsert": bson.M{
			"_id":        alias.ID,
			"text":       alias.Text,
			"created_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to upsert alias: %w", err)
	}
	return nil
}

func (r *Repository) GetAlias(ctx context.Context, id string) (*models.Alias, error) {
	var alias models.Alias
	err := r.aliases.FindOne(ctx, bson.M{"_id": id}).Decode(&alias)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("alias: %w", tally.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alias: %w", err)
	}
	return &alias, nil
}

func (r *Repository) DeleteAlias(ctx context.Context, id string) error {
	res, err := r.aliases.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("alias: %w", tally.ErrNotFound)
	}
	return nil
}

// ListAliases returns aliases for the given players, or every alias when ids is nil.
func (r *Repository) ListAliases(ctx context.Context, playerIDs []string) ([]models.Alias, error) {
	filter := bson.M{}
	if playerIDs != nil {
		filter["player_id"] = bson.M{"$in": playerIDs}
	}
	cursor, err := r.aliases.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "text_lower", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer cursor.Close(ctx)

	aliases := []models.Alias{}
	if err := cursor.All(ctx, &aliases); err != nil {
		return nil, fmt.Errorf("failed to decode aliases: %w", err)
	}
	return aliases, nil
}
