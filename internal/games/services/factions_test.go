package services

import (
	"context"
	"testing"

	"github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	game, err := svc.Create(ctx, CreateParams{Name: "Faction Mafia", ThreadID: "77", ModeratorID: "id-mod"})
	require.NoError(t, err)

	town, created, err := svc.AddFaction(ctx, game, " Town ", "town")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Town", town.Name)

	again, created, err := svc.AddFaction(ctx, game, "Town", "town")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, town.ID, again.ID)

	mafia, _, err := svc.AddFaction(ctx, game, "Mafia", "mafia")
	require.NoError(t, err)

	_, _, err = svc.AddFaction(ctx, game, "  ", "")
	assert.ErrorIs(t, err, tally.ErrConflict)

	factions, err := svc.Factions(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, factions, 2)
	assert.Equal(t, "Town", factions[0].Name)
	assert.Equal(t, "Mafia", factions[1].Name)

	require.NoError(t, svc.DeleteFaction(ctx, game, town.ID))
	assert.ErrorIs(t, svc.DeleteFaction(ctx, game, town.ID), tally.ErrNotFound)

	other, err := svc.Create(ctx, CreateParams{Name: "Other Mafia", ThreadID: "78", ModeratorID: "id-mod"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteFaction(ctx, other, mafia.ID), tally.ErrNotFound)
	_, err = svc.CloseForFaction(ctx, other, mafia.ID)
	assert.ErrorIs(t, err, tally.ErrNotFound)

	closed, err := svc.CloseForFaction(ctx, game, mafia.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateClosed, closed.State)

	factions, err = svc.Factions(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, factions, 1)
	assert.True(t, factions[0].Winning)

	msgs := messages(t, svc, game.ID)
	assert.Equal(t, "The game is over. Mafia has won.", msgs[len(msgs)-1])
}
