package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Roster

func (r *Repository) InsertState(ctx context.Context, state *models.PlayerState) error {
	if _, err := r.states.InsertOne(ctx, state); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("player already in game: %w", tally.ErrConflict)
		}
		return fmt.Errorf("failed to insert player state: %w", err)
	}
	return nil
}

func (r *Repository) GetState(ctx context.Context, gameID, playerID string) (*models.PlayerState, error) {
	var state models.PlayerState
	if err := r.states.FindOne(ctx, bson.M{"game_id": gameID, "player_id": playerID}).Decode(&state); err != nil {
		return nil, notFound("player state", err)
	}
	return &state, nil
}

func (r *Repository) SetStatus(ctx context.Context, gameID, playerID string, status tally.Status) error {
	res, err := r.states.UpdateOne(ctx,
		bson.M{"game_id": gameID, "player_id": playerID},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("player state: %w", tally.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListStates(ctx context.Context, gameID string) ([]models.PlayerState, error) {
	cursor, err := r.states.Find(ctx, bson.M{"game_id": gameID})
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	defer cursor.Close(ctx)

	states := []models.PlayerState{}
	if err := cursor.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	return states, nil
}

// ListModeratorStates returns every moderator row across all games.
func (r *Repository) ListModeratorStates(ctx context.Context) ([]models.PlayerState, error) {
	cursor, err := r.states.Find(ctx, bson.M{"status": tally.StatusModerator})
	if err != nil {
		return nil, fmt.Errorf("failed to list moderators: %w", err)
	}
	defer cursor.Close(ctx)

	var states []models.PlayerState
	if err := cursor.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("failed to decode moderators: %w", err)
	}
	return states, nil
}

func (r *Repository) DeleteSpectators(ctx context.Context, gameID string) (int64, error) {
	res, err := r.states.DeleteMany(ctx, bson.M{"game_id": gameID, "status": tally.StatusSpectator})
	if err != nil {
		return 0, fmt.Errorf("failed to delete spectators: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *Repository) DeleteState(ctx context.Context, gameID, playerID string) error {
	if _, err := r.states.DeleteOne(ctx, bson.M{"game_id": gameID, "player_id": playerID}); err != nil {
		return fmt.Errorf("failed to delete player state: %w", err)
	}
	return nil
}

// RepointState hands the status row of one player to another, keeping the status.
func (r *Repository) RepointState(ctx context.Context, gameID, fromID, toID string) error {
	res, err := r.states.UpdateOne(ctx,
		bson.M{"game_id": gameID, "player_id": fromID},
		bson.M{"$set": bson.M{"player_id": toID}})
	if err != nil {
		return fmt.Errorf("failed to repoint player state: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("player state: %w", tally.ErrNotFound)
	}
	return nil
}

// Days

// UpsertDay points the day at its start post, creating the day when needed.
func (r *Repository) UpsertDay(ctx context.Context, day *models.GameDay) error {
	_, err := r.days.UpdateOne(ctx,
		bson.M{"game_id": day.GameID, "day_number": day.DayNumber},
		bson.M{
			"$set": bson.M{
				"start_post_id":       day.StartPostID,
				"start_post_sequence": day.StartPostSequence,
			},
			"$setOnInsert": bson.M{"_id": day.ID},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert day: %w", err)
	}
	return nil
}

// CurrentDay is the day with the greatest number.
func (r *Repository) CurrentDay(ctx context.Context, gameID string) (*models.GameDay, error) {
	var day models.GameDay
	err := r.days.FindOne(ctx, bson.M{"game_id": gameID},
		options.FindOne().SetSort(bson.D{{Key: "day_number", Value: -1}})).Decode(&day)
	if err != nil {
		return nil, notFound("game day", err)
	}
	return &day, nil
}

func (r *Repository) ListDays(ctx context.Context, gameID string) ([]models.GameDay, error) {
	cursor, err := r.days.Find(ctx, bson.M{"game_id": gameID},
		options.Find().SetSort(bson.D{{Key: "day_number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	defer cursor.Close(ctx)

	days := []models.GameDay{}
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("failed to decode days: %w", err)
	}
	return days, nil
}

// Posts

// InsertPost stores a post; a post already seen under the same forum id is returned as-is.
func (r *Repository) InsertPost(ctx context.Context, post *models.Post) (inserted bool, err error) {
	_, err = r.posts.InsertOne(ctx, post)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to insert post: %w", err)
	}
	existing, getErr := r.GetPostByForumID(ctx, post.GameID, post.ForumPostID)
	if getErr != nil {
		return false, getErr
	}
	*post = *existing
	return false, nil
}

func (r *Repository) GetPost(ctx context.Context, gameID, postID string) (*models.Post, error) {
	var post models.Post
	if err := r.posts.FindOne(ctx, bson.M{"_id": postID, "game_id": gameID}).Decode(&post); err != nil {
		return nil, notFound("post", err)
	}
	return &post, nil
}

func (r *Repository) GetPostByForumID(ctx context.Context, gameID, forumPostID string) (*models.Post, error) {
	var post models.Post
	if err := r.posts.FindOne(ctx, bson.M{"game_id": gameID, "forum_post_id": forumPostID}).Decode(&post); err != nil {
		return nil, notFound("post", err)
	}
	return &post, nil
}

func (r *Repository) LatestPost(ctx context.Context, gameID string) (*models.Post, error) {
	var post models.Post
	err := r.posts.FindOne(ctx, bson.M{"game_id": gameID},
		options.FindOne().SetSort(bson.D{{Key: "sequence", Value: -1}})).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("game has no posts yet: %w", tally.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest post: %w", err)
	}
	return &post, nil
}

// ListPosts returns one forum page of posts; page 0 returns every post.
func (r *Repository) ListPosts(ctx context.Context, gameID string, page int) ([]models.Post, error) {
	filter := bson.M{"game_id": gameID}
	if page > 0 {
		filter["page_number"] = page
	}
	cursor, err := r.posts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return posts, nil
}

// MaxPage is the greatest page number seen for the game.
func (r *Repository) MaxPage(ctx context.Context, gameID string) (int, error) {
	var post models.Post
	err := r.posts.FindOne(ctx, bson.M{"game_id": gameID},
		options.FindOne().SetSort(bson.D{{Key: "page_number", Value: -1}})).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load page count: %w", err)
	}
	return post.PageNumber, nil
}
