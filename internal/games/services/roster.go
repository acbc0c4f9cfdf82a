package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// RosterMember is a roster row joined with the player's name.
type RosterMember struct {
	PlayerID string       `json:"player_id"`
	Name     string       `json:"name"`
	Status   tally.Status `json:"status"`
}

// Roster lists the game's members sorted by status, then name.
func (s *Service) Roster(ctx context.Context, gameID string) ([]RosterMember, error) {
	entries, err := s.RosterEntries(ctx, gameID)
	if err != nil {
		return nil, err
	}
	members := make([]RosterMember, 0, len(entries))
	for _, e := range entries {
		members = append(members, RosterMember{PlayerID: string(e.ID), Name: e.Name, Status: e.Status})
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Status != members[j].Status {
			return statusRank(members[i].Status) < statusRank(members[j].Status)
		}
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
	return members, nil
}

func statusRank(s tally.Status) int {
	switch s {
	case tally.StatusModerator:
		return 0
	case tally.StatusAlive:
		return 1
	case tally.StatusDead:
		return 2
	}
	return 3
}

// RosterEntries is the roster in engine form.
func (s *Service) RosterEntries(ctx context.Context, gameID string) ([]tally.RosterEntry, error) {
	states, err := s.repo.ListStates(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(states))
	for _, st := range states {
		ids = append(ids, st.PlayerID)
	}
	names, err := s.players.Names(ctx, ids)
	if err != nil {
		return nil, err
	}
	entries := make([]tally.RosterEntry, 0, len(states))
	for _, st := range states {
		entries = append(entries, tally.RosterEntry{
			Participant: tally.Participant{ID: tally.ParticipantID(st.PlayerID), Name: names[st.PlayerID]},
			Status:      st.Status,
		})
	}
	return entries, nil
}

// AddPlayer puts a player on the roster by name, creating the player if needed. The game's
// moderator joins as moderator, everyone else as alive.
func (s *Service) AddPlayer(ctx context.Context, game *models.Game, name string) (*RosterMember, error) {
	player, err := s.players.FindOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}
	status := tally.StatusAlive
	if player.ID == game.ModeratorID {
		status = tally.StatusModerator
	}
	if err := s.repo.InsertState(ctx, &models.PlayerState{
		ID:       uuid.NewString(),
		GameID:   game.ID,
		PlayerID: player.ID,
		Status:   status,
	}); err != nil {
		return nil, err
	}
	if status == tally.StatusModerator {
		s.grant(game.ID, player.ID)
	}
	slog.InfoContext(ctx, "Player added to game", "game", game.Slug, "player", player.Name, "status", status)
	return &RosterMember{PlayerID: player.ID, Name: player.Name, Status: status}, nil
}

// SetPlayerStatus changes a member's status. The game's own moderator cannot be changed.
func (s *Service) SetPlayerStatus(ctx context.Context, game *models.Game, playerID string, status tally.Status) (*RosterMember, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, tally.ErrConflict)
	}
	if playerID == game.ModeratorID {
		return nil, fmt.Errorf("the game moderator's status cannot change: %w", tally.ErrConflict)
	}
	current, err := s.repo.GetState(ctx, game.ID, playerID)
	if err != nil {
		return nil, err
	}
	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, game.ID, playerID, status); err != nil {
		return nil, err
	}

	switch {
	case status == tally.StatusModerator && current.Status != tally.StatusModerator:
		s.grant(game.ID, playerID)
	case status != tally.StatusModerator && current.Status == tally.StatusModerator:
		s.revoke(game.ID, playerID)
	}
	if status == tally.StatusDead && current.Status != tally.StatusDead {
		s.announce(ctx, game.ID, fmt.Sprintf("%s died.", player.Name), true)
	}
	return &RosterMember{PlayerID: playerID, Name: player.Name, Status: status}, nil
}

// PruneSpectators removes every spectator row from the game.
func (s *Service) PruneSpectators(ctx context.Context, game *models.Game) (int64, error) {
	n, err := s.repo.DeleteSpectators(ctx, game.ID)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Spectators removed", "game", game.Slug, "count", n)
	return n, nil
}

// Days

// StartDay opens (or moves) day number at the given post and clears the deadline.
func (s *Service) StartDay(ctx context.Context, game *models.Game, number int, postID string) (*models.GameDay, error) {
	if game.State != models.StateStarted {
		return nil, fmt.Errorf("game is not started: %w", tally.ErrConflict)
	}
	if number < 1 {
		return nil, fmt.Errorf("day numbers start at 1: %w", tally.ErrConflict)
	}
	post, err := s.repo.GetPost(ctx, game.ID, postID)
	if err != nil {
		return nil, err
	}
	return s.openDay(ctx, game, number, post)
}

// NewDay opens day number at the latest post of the game.
func (s *Service) NewDay(ctx context.Context, game *models.Game, number int) (*models.GameDay, error) {
	if game.State != models.StateStarted {
		return nil, fmt.Errorf("game is not started: %w", tally.ErrConflict)
	}
	post, err := s.repo.LatestPost(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	return s.openDay(ctx, game, number, post)
}

func (s *Service) openDay(ctx context.Context, game *models.Game, number int, post *models.Post) (*models.GameDay, error) {
	day := &models.GameDay{
		ID:                uuid.NewString(),
		GameID:            game.ID,
		DayNumber:         number,
		StartPostID:       post.ID,
		StartPostSequence: post.Sequence,
	}
	if err := s.repo.UpsertDay(ctx, day); err != nil {
		return nil, err
	}
	if _, err := s.repo.UpdateGame(ctx, game.ID, nil, bson.M{"deadline": ""}); err != nil {
		return nil, err
	}
	s.announce(ctx, game.ID, fmt.Sprintf("Day %d has begun!", number), true)
	slog.InfoContext(ctx, "Day started", "game", game.Slug, "day", number, "post_sequence", post.Sequence)
	return day, nil
}

// CurrentDay returns the open day, or ErrNotFound when none was ever started.
func (s *Service) CurrentDay(ctx context.Context, gameID string) (*models.GameDay, error) {
	return s.repo.CurrentDay(ctx, gameID)
}

func (s *Service) Days(ctx context.Context, gameID string) ([]models.GameDay, error) {
	return s.repo.ListDays(ctx, gameID)
}

// Posts returns one page of posts along with the number of pages seen so far.
func (s *Service) Posts(ctx context.Context, gameID string, page int) ([]models.Post, int, error) {
	posts, err := s.repo.ListPosts(ctx, gameID, page)
	if err != nil {
		return nil, 0, err
	}
	pages, err := s.repo.MaxPage(ctx, gameID)
	if err != nil {
		return nil, 0, err
	}
	return posts, pages, nil
}
