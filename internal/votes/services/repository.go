package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LoganMeitz/votefinder/internal/votes/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles vote ledger persistence.
type Repository struct {
	votes *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{votes: db.Collection(models.VotesCollection)}
}

func (r *Repository) CreateIndexes(ctx context.Context) error {
	_, err := r.votes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
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
	if err != nil {
		return fmt.Errorf("failed to create vote indexes: %w", err)
	}
	return nil
}

// InsertMany stores new declarations. Rows whose order key already exists are skipped so
// re-ingesting a post is harmless.
func (r *Repository) InsertMany(ctx context.Context, votes []models.Vote) (int, error) {
	if len(votes) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, len(votes))
	for i := range votes {
		docs[i] = votes[i]
	}
	res, err := r.votes.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err != nil {
		var bulk mongo.BulkWriteException
		if errors.As(err, &bulk) && onlyDuplicates(bulk) {
			return inserted, nil
		}
		return inserted, fmt.Errorf("failed to insert votes: %w", err)
	}
	return inserted, nil
}

// Insert stores one vote. ErrConflict means its order key is taken.
func (r *Repository) Insert(ctx context.Context, vote *models.Vote) error {
	if _, err := r.votes.InsertOne(ctx, vote); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("vote order key taken: %w", tally.ErrConflict)
		}
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func onlyDuplicates(bulk mongo.BulkWriteException) bool {
	if bulk.WriteConcernError != nil {
		return false
	}
	for _, we := range bulk.WriteErrors {
		if !mongo.IsDuplicateKeyError(we) {
			return false
		}
	}
	return true
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Vote, error) {
	var vote models.Vote
	err := r.votes.FindOne(ctx, bson.M{"_id": id}).Decode(&vote)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("vote: %w", tally.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vote: %w", err)
	}
	return &vote, nil
}

// ListByGame returns the game's whole ledger in order-key order.
func (r *Repository) ListByGame(ctx context.Context, gameID string) ([]models.Vote, error) {
	cursor, err := r.votes.Find(ctx, bson.M{"game_id": gameID},
		options.Find().SetSort(bson.D{{Key: "order.post_sequence", Value: 1}, {Key: "order.index", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer cursor.Close(ctx)

	votes := []models.Vote{}
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, fmt.Errorf("failed to decode votes: %w", err)
	}
	return votes, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.votes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("vote: %w", tally.ErrNotFound)
	}
	return nil
}

// DeleteMany removes the given votes of one game.
func (r *Repository) DeleteMany(ctx context.Context, gameID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.votes.DeleteMany(ctx, bson.M{"game_id": gameID, "_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}
	return nil
}

// NextIndex is the first free intra-post index at the given post sequence.
func (r *Repository) NextIndex(ctx context.Context, gameID string, postSequence int64) (int, error) {
	var last models.Vote
	err := r.votes.FindOne(ctx,
		bson.M{"game_id": gameID, "order.post_sequence": postSequence},
		options.FindOne().SetSort(bson.D{{Key: "order.index", Value: -1}}),
	).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find next vote index: %w", err)
	}
	return last.Order.Index + 1, nil
}

// SetOutcome writes a disposition and target to the given pending votes. Votes that are no
// longer pending are left alone.
func (r *Repository) SetOutcome(ctx context.Context, gameID string, ids []string, disposition tally.Disposition, target string) (int64, error) {
	set := bson.M{"disposition": disposition, "updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if target != "" {
		set["target_id"] = target
	} else {
		update["$unset"] = bson.M{"target_id": ""}
	}
	res, err := r.votes.UpdateMany(ctx,
		bson.M{"game_id": gameID, "_id": bson.M{"$in": ids}, "disposition": tally.DispositionPending},
		update)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve votes: %w", err)
	}
	return res.ModifiedCount, nil
}

// Repoint moves the author or target reference of one vote to another player.
func (r *Repository) Repoint(ctx context.Context, id, field, playerID string) error {
	_, err := r.votes.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{field: playerID, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to repoint vote %s: %w", id, err)
	}
	return nil
}
