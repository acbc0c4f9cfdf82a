package services

import (
	"context"
	"fmt"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GameEntry is one game a player is on the roster of.
type GameEntry struct {
	GameID string           `json:"game_id"`
	Slug   string           `json:"slug"`
	Name   string           `json:"name"`
	State  gamemodels.State `json:"state"`
	Status tally.Status     `json:"status"`
}

// Games lists every game the player is on the roster of, newest first.
func (s *Service) Games(ctx context.Context, playerID string) ([]GameEntry, error) {
	if _, err := s.repo.GetByID(ctx, playerID); err != nil {
		return nil, err
	}
	states, err := s.states(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return s.entries(ctx, states)
}

// CommonGames lists the games both players played in. Moderating or spectating a game does
// not count as playing it.
func (s *Service) CommonGames(ctx context.Context, playerID, otherID string) ([]GameEntry, error) {
	for _, id := range []string{playerID, otherID} {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	mine, err := s.states(ctx, playerID)
	if err != nil {
		return nil, err
	}
	theirs, err := s.states(ctx, otherID)
	if err != nil {
		return nil, err
	}

	played := map[string]bool{}
	for _, st := range theirs {
		if playing(st.Status) {
			played[st.GameID] = true
		}
	}
	var common []gamemodels.PlayerState
	for _, st := range mine {
		if playing(st.Status) && played[st.GameID] {
			common = append(common, st)
		}
	}
	return s.entries(ctx, common)
}

func playing(status tally.Status) bool {
	return status == tally.StatusAlive || status == tally.StatusDead
}

func (s *Service) states(ctx context.Context, playerID string) ([]gamemodels.PlayerState, error) {
	cursor, err := s.db.Database.Collection(gamemodels.PlayerStatesCollection).Find(ctx, bson.M{"player_id": playerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list player states: %w", err)
	}
	defer cursor.Close(ctx)

	var states []gamemodels.PlayerState
	if err := cursor.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("failed to decode player states: %w", err)
	}
	return states, nil
}

func (s *Service) entries(ctx context.Context, states []gamemodels.PlayerState) ([]GameEntry, error) {
	out := []GameEntry{}
	if len(states) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(states))
	status := make(map[string]tally.Status, len(states))
	for _, st := range states {
		ids = append(ids, st.GameID)
		status[st.GameID] = st.Status
	}

	cursor, err := s.db.Database.Collection(gamemodels.GamesCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	defer cursor.Close(ctx)

	var games []gamemodels.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("failed to decode games: %w", err)
	}
	for _, g := range games {
		out = append(out, GameEntry{GameID: g.ID, Slug: g.Slug, Name: g.Name, State: g.State, Status: status[g.ID]})
	}
	return out, nil
}
