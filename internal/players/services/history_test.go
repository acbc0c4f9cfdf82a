package services

import (
	"context"
	"testing"
	"time"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGamesAndCommonGames(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	db := svc.db.Database

	alice, err := svc.Create(ctx, "Alice", "")
	require.NoError(t, err)
	bob, err := svc.Create(ctx, "Bob", "")
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = db.Collection(gamemodels.GamesCollection).InsertMany(ctx, []interface{}{
		gamemodels.Game{ID: "g1", Slug: "first", Name: "First", State: gamemodels.StateClosed, CreatedAt: base},
		gamemodels.Game{ID: "g2", Slug: "second", Name: "Second", State: gamemodels.StateStarted, CreatedAt: base.Add(time.Hour)},
		gamemodels.Game{ID: "g3", Slug: "third", Name: "Third", State: gamemodels.StateStarted, CreatedAt: base.Add(2 * time.Hour)},
		gamemodels.Game{ID: "g4", Slug: "fourth", Name: "Fourth", State: gamemodels.StatePregame, CreatedAt: base.Add(3 * time.Hour)},
	})
	require.NoError(t, err)
	_, err = db.Collection(gamemodels.PlayerStatesCollection).InsertMany(ctx, []interface{}{
		gamemodels.PlayerState{ID: "s1", GameID: "g1", PlayerID: alice.ID, Status: tally.StatusDead},
		gamemodels.PlayerState{ID: "s2", GameID: "g1", PlayerID: bob.ID, Status: tally.StatusAlive},
		gamemodels.PlayerState{ID: "s3", GameID: "g2", PlayerID: alice.ID, Status: tally.StatusModerator},
		gamemodels.PlayerState{ID: "s4", GameID: "g2", PlayerID: bob.ID, Status: tally.StatusAlive},
		gamemodels.PlayerState{ID: "s5", GameID: "g3", PlayerID: alice.ID, Status: tally.StatusAlive},
		gamemodels.PlayerState{ID: "s6", GameID: "g3", PlayerID: bob.ID, Status: tally.StatusDead},
		gamemodels.PlayerState{ID: "s7", GameID: "g4", PlayerID: alice.ID, Status: tally.StatusSpectator},
	})
	require.NoError(t, err)

	games, err := svc.Games(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, games, 4)
	assert.Equal(t, GameEntry{GameID: "g4", Slug: "fourth", Name: "Fourth", State: gamemodels.StatePregame, Status: tally.StatusSpectator}, games[0])
	assert.Equal(t, "g1", games[3].GameID)
	assert.Equal(t, tally.StatusDead, games[3].Status)

	common, err := svc.CommonGames(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, common, 2)
	assert.Equal(t, "g3", common[0].GameID)
	assert.Equal(t, tally.StatusAlive, common[0].Status)
	assert.Equal(t, "g1", common[1].GameID)

	reverse, err := svc.CommonGames(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, reverse, 2)
	assert.Equal(t, tally.StatusDead, reverse[0].Status)

	nobody, err := svc.Create(ctx, "Nobody", "")
	require.NoError(t, err)
	none, err := svc.Games(ctx, nobody.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.CommonGames(ctx, alice.ID, "missing")
	assert.ErrorIs(t, err, tally.ErrNotFound)
}
