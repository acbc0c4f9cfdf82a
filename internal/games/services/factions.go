package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/google/uuid"
)

// AddFaction returns the game's faction with this name and kind, creating it when missing.
// created reports whether a new faction was stored.
func (s *Service) AddFaction(ctx context.Context, game *models.Game, name, kind string) (faction *models.Faction, created bool, err error) {
	name = strings.TrimSpace(name)
	kind = strings.TrimSpace(kind)
	if name == "" {
		return nil, false, fmt.Errorf("empty faction name: %w", tally.ErrConflict)
	}

	existing, err := s.repo.FindFaction(ctx, game.ID, name, kind)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, tally.ErrNotFound) {
		return nil, false, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate faction id: %w", err)
	}
	faction = &models.Faction{
		ID:        id.String(),
		GameID:    game.ID,
		Name:      name,
		Kind:      kind,
		CreatedAt: s.now(),
	}
	if err := s.repo.InsertFaction(ctx, faction); err != nil {
		if errors.Is(err, tally.ErrConflict) {
			existing, findErr := s.repo.FindFaction(ctx, game.ID, name, kind)
			return existing, false, findErr
		}
		return nil, false, err
	}
	slog.InfoContext(ctx, "Faction added", "game", game.Slug, "faction", name, "kind", kind)
	return faction, true, nil
}

func (s *Service) Factions(ctx context.Context, gameID string) ([]models.Faction, error) {
	return s.repo.ListFactions(ctx, gameID)
}

func (s *Service) DeleteFaction(ctx context.Context, game *models.Game, factionID string) error {
	if err := s.repo.DeleteFaction(ctx, game.ID, factionID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Faction deleted", "game", game.Slug, "faction_id", factionID)
	return nil
}

// CloseForFaction closes the game with one of its factions as the winner.
func (s *Service) CloseForFaction(ctx context.Context, game *models.Game, factionID string) (*models.Game, error) {
	faction, err := s.repo.GetFaction(ctx, game.ID, factionID)
	if err != nil {
		return nil, err
	}
	closed, err := s.Close(ctx, game, faction.Name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetWinningFaction(ctx, game.ID, faction.ID); err != nil {
		return nil, err
	}
	return closed, nil
}
