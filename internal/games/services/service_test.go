package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/LoganMeitz/votefinder/internal/games/models"
	playermodels "github.com/LoganMeitz/votefinder/internal/players/models"
	"github.com/LoganMeitz/votefinder/pkg/database/dbtest"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayers struct {
	byID map[string]*playermodels.Player
}

func newFakePlayers(names ...string) *fakePlayers {
	f := &fakePlayers{byID: map[string]*playermodels.Player{}}
	for _, n := range names {
		f.add(n)
	}
	return f
}

func (f *fakePlayers) add(name string) *playermodels.Player {
	p := &playermodels.Player{ID: "id-" + strings.ToLower(name), Name: name}
	f.byID[p.ID] = p
	return p
}

func (f *fakePlayers) Get(_ context.Context, id string) (*playermodels.Player, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("player: %w", tally.ErrNotFound)
}

func (f *fakePlayers) FindOrCreate(_ context.Context, name string) (*playermodels.Player, error) {
	for _, p := range f.byID {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return f.add(name), nil
}

func (f *fakePlayers) Names(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out[id] = p.Name
		}
	}
	return out, nil
}

type fakeGrants struct {
	granted map[string]bool
}

func (g *fakeGrants) GrantGameModerator(playerID, gameID string) error {
	g.granted[playerID+"@"+gameID] = true
	return nil
}

func (g *fakeGrants) RevokeGameModerator(playerID, gameID string) error {
	delete(g.granted, playerID+"@"+gameID)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakePlayers, *fakeGrants) {
	t.Helper()
	db := dbtest.NewMongoDB(t)
	players := newFakePlayers("Mod", "Alice", "Bob")
	grants := &fakeGrants{granted: map[string]bool{}}
	svc := NewService(db, players, grants)
	require.NoError(t, svc.Repository().CreateIndexes(context.Background()))
	return svc, players, grants
}

func addPost(t *testing.T, svc *Service, game *models.Game, author string, at time.Time) *models.Post {
	t.Helper()
	ctx := context.Background()
	seq, err := svc.repo.ClaimPostSequences(ctx, game.ID, 1, at)
	require.NoError(t, err)
	post := &models.Post{
		ID:          fmt.Sprintf("post-%d", seq),
		GameID:      game.ID,
		Sequence:    seq,
		ForumPostID: fmt.Sprintf("f%d", seq),
		AuthorID:    author,
		PostedAt:    at,
		PageNumber:  1,
	}
	_, err = svc.repo.InsertPost(ctx, post)
	require.NoError(t, err)
	return post
}

func messages(t *testing.T, svc *Service, gameID string) []string {
	t.Helper()
	updates, err := svc.Updates(context.Background(), gameID, 100)
	require.NoError(t, err)
	out := make([]string, 0, len(updates))
	for i := len(updates) - 1; i >= 0; i-- {
		out = append(out, updates[i].Message)
	}
	return out
}

func TestGameLifecycle(t *testing.T) {
	svc, _, grants := newTestService(t)
	ctx := context.Background()

	game, err := svc.Create(ctx, CreateParams{Name: "Mini Mafia", ThreadID: "t1", ModeratorID: "id-mod"})
	require.NoError(t, err)
	assert.Equal(t, "mini-mafia", game.Slug)
	assert.Equal(t, models.StatePregame, game.State)
	assert.True(t, grants.granted["id-mod@"+game.ID])

	_, err = svc.Create(ctx, CreateParams{Name: "Duplicate", ThreadID: "t1", ModeratorID: "id-mod"})
	assert.ErrorIs(t, err, tally.ErrConflict)

	_, err = svc.Reopen(ctx, game)
	assert.ErrorIs(t, err, tally.ErrConflict)

	addPost(t, svc, game, "id-mod", time.Now())
	started, err := svc.Start(ctx, game, true)
	require.NoError(t, err)
	assert.Equal(t, models.StateStarted, started.State)

	day, err := svc.CurrentDay(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, day.DayNumber)
	assert.Equal(t, int64(1), day.StartPostSequence)

	_, err = svc.Start(ctx, started, false)
	assert.ErrorIs(t, err, tally.ErrConflict)

	closed, err := svc.Close(ctx, started, "Town")
	require.NoError(t, err)
	_, err = svc.Reopen(ctx, closed)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"A new game was created by Mod!",
		"The game has started!",
		"Day 1 has begun!",
		"The game is over. Town has won.",
		"The game is re-opened!",
	}, messages(t, svc, game.ID))
}

func TestRosterAndDays(t *testing.T) {
	svc, _, grants := newTestService(t)
	ctx := context.Background()

	game, err := svc.Create(ctx, CreateParams{Name: "Roster", ThreadID: "t2", ModeratorID: "id-mod"})
	require.NoError(t, err)

	alice, err := svc.AddPlayer(ctx, game, "Alice")
	require.NoError(t, err)
	assert.Equal(t, tally.StatusAlive, alice.Status)
	_, err = svc.AddPlayer(ctx, game, "alice")
	assert.ErrorIs(t, err, tally.ErrConflict)

	carol, err := svc.AddPlayer(ctx, game, "Carol")
	require.NoError(t, err)
	_, err = svc.SetPlayerStatus(ctx, game, carol.PlayerID, tally.StatusSpectator)
	require.NoError(t, err)

	_, err = svc.SetPlayerStatus(ctx, game, "id-mod", tally.StatusDead)
	assert.ErrorIs(t, err, tally.ErrConflict)

	_, err = svc.SetPlayerStatus(ctx, game, alice.PlayerID, tally.StatusModerator)
	require.NoError(t, err)
	assert.True(t, grants.granted[alice.PlayerID+"@"+game.ID])
	_, err = svc.SetPlayerStatus(ctx, game, alice.PlayerID, tally.StatusDead)
	require.NoError(t, err)
	assert.False(t, grants.granted[alice.PlayerID+"@"+game.ID])

	removed, err := svc.PruneSpectators(ctx, game)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	roster, err := svc.Roster(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, tally.StatusModerator, roster[0].Status)
	assert.Equal(t, "Alice", roster[1].Name)

	_, err = svc.NewDay(ctx, game, 1)
	assert.ErrorIs(t, err, tally.ErrConflict, "pregame games have no days")

	game, err = svc.Start(ctx, game, false)
	require.NoError(t, err)
	_, err = svc.NewDay(ctx, game, 1)
	assert.ErrorIs(t, err, tally.ErrConflict, "no posts yet")

	first := addPost(t, svc, game, alice.PlayerID, time.Now())
	second := addPost(t, svc, game, "id-mod", time.Now())

	_, err = svc.UpdateSettings(ctx, game, "Mod", SettingsUpdate{Deadline: ptr("2030-01-01T12:00")})
	require.NoError(t, err)

	_, err = svc.StartDay(ctx, game, 1, first.ID)
	require.NoError(t, err)
	_, err = svc.StartDay(ctx, game, 1, second.ID)
	require.NoError(t, err)

	days, err := svc.Days(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, second.Sequence, days[0].StartPostSequence)

	reloaded, err := svc.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Deadline, "starting a day clears the deadline")

	assert.Contains(t, messages(t, svc, game.ID), "Alice died.")
}

func TestUpdateSettings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	game, err := svc.Create(ctx, CreateParams{Name: "Settings", ThreadID: "t3", ModeratorID: "id-mod", Timezone: "America/New_York"})
	require.NoError(t, err)

	_, err = svc.UpdateSettings(ctx, game, "Mod", SettingsUpdate{Deadline: ptr("2030-01-01T12:00")})
	assert.ErrorIs(t, err, tally.ErrConflict, "deadline needs a started game")

	game, err = svc.Start(ctx, game, false)
	require.NoError(t, err)

	updated, err := svc.UpdateSettings(ctx, game, "Mod", SettingsUpdate{
		Deadline:      ptr("2030-01-01T12:00"),
		Comment:       ptr("Vote carefully"),
		HideZeroVotes: ptr(true),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Deadline)
	assert.True(t, updated.Deadline.Equal(time.Date(2030, 1, 1, 17, 0, 0, 0, time.UTC)))
	assert.True(t, updated.HideZeroVotes)
	assert.Equal(t, "Vote carefully", updated.Comment)

	// a second deadline is not announced again
	_, err = svc.UpdateSettings(ctx, updated, "Mod", SettingsUpdate{Deadline: ptr("2030-01-02T12:00")})
	require.NoError(t, err)

	_, err = svc.UpdateSettings(ctx, updated, "Mod", SettingsUpdate{Timezone: ptr("Bad/Zone")})
	assert.ErrorIs(t, err, tally.ErrConflict)

	msgs := messages(t, svc, game.ID)
	assert.Contains(t, msgs, "A deadline has been set for Tuesday, January 01 at 12:00 PM EST.")
	assert.Contains(t, msgs, "Mod added a comment: Vote carefully")
	count := 0
	for _, m := range msgs {
		if strings.HasPrefix(m, "A deadline has been set") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCloseInactive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	stale, err := svc.Create(ctx, CreateParams{Name: "Stale", ThreadID: "t4", ModeratorID: "id-mod"})
	require.NoError(t, err)
	fresh, err := svc.Create(ctx, CreateParams{Name: "Fresh", ThreadID: "t5", ModeratorID: "id-mod"})
	require.NoError(t, err)

	addPost(t, svc, stale, "id-mod", time.Now().Add(-7*24*time.Hour))
	addPost(t, svc, fresh, "id-mod", time.Now().Add(-time.Hour))
	_, err = svc.Start(ctx, stale, false)
	require.NoError(t, err)
	_, err = svc.Start(ctx, fresh, false)
	require.NoError(t, err)

	closed, err := svc.CloseInactive(ctx, 6*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{stale.Slug}, closed)
	assert.Contains(t, messages(t, svc, stale.ID), "Closed automatically for inactivity.")

	grants, err := svc.ModeratorGrants(ctx)
	require.NoError(t, err)
	assert.Len(t, grants, 2)
}

func ptr[T any](v T) *T { return &v }
