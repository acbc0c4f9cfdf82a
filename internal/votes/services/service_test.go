package services

import (
	"context"
	"testing"
	"time"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	gameservices "github.com/LoganMeitz/votefinder/internal/games/services"
	playerservices "github.com/LoganMeitz/votefinder/internal/players/services"
	"github.com/LoganMeitz/votefinder/internal/votes/models"
	"github.com/LoganMeitz/votefinder/pkg/database/dbtest"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fixture struct {
	votes   *Service
	games   *gameservices.Service
	players *playerservices.Service
	game    *gamemodels.Game
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := dbtest.NewMongoDB(t)

	players := playerservices.NewService(db, nil, "Anonymous")
	require.NoError(t, players.Repository().CreateIndexes(ctx))
	games := gameservices.NewService(db, players, nil)
	require.NoError(t, games.Repository().CreateIndexes(ctx))

	cache, err := NewTallyCache(nil, time.Minute)
	require.NoError(t, err)
	votes := NewService(db, games, players, cache, NewGameLocks(nil, time.Minute))
	require.NoError(t, votes.Repository().CreateIndexes(ctx))

	mod, err := players.FindOrCreate(ctx, "Mod")
	require.NoError(t, err)
	game, err := games.Create(ctx, gameservices.CreateParams{Name: "Test Mafia", ThreadID: "42", ModeratorID: mod.ID})
	require.NoError(t, err)
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := games.AddPlayer(ctx, game, name)
		require.NoError(t, err)
	}
	game, err = games.Start(ctx, game, false)
	require.NoError(t, err)

	return &fixture{votes: votes, games: games, players: players, game: game}
}

func (f *fixture) playerID(t *testing.T, name string) string {
	t.Helper()
	p, err := f.players.FindOrCreate(context.Background(), name)
	require.NoError(t, err)
	return p.ID
}

func threadPosts() []IngestPost {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []IngestPost{
		{ForumPostID: "1", AuthorName: "Mod", PostedAt: at, PageNumber: 1},
		{ForumPostID: "2", AuthorName: "Alice", PostedAt: at.Add(time.Minute), PageNumber: 1,
			Declarations: []IngestDeclaration{{RawTarget: "Bob"}}},
		{ForumPostID: "3", AuthorName: "Bob", PostedAt: at.Add(2 * time.Minute), PageNumber: 1,
			Declarations: []IngestDeclaration{{RawTarget: "Smith"}}},
		{ForumPostID: "4", AuthorName: "Carol", PostedAt: at.Add(3 * time.Minute), PageNumber: 2,
			Declarations: []IngestDeclaration{{RawTarget: "bob"}}},
	}
}

func (f *fixture) openDayOne(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	first, err := f.games.Repository().GetPostByForumID(ctx, f.game.ID, "1")
	require.NoError(t, err)
	_, err = f.games.StartDay(ctx, f.game, 1, first.ID)
	require.NoError(t, err)
}

func TestIngestIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.votes.Ingest(ctx, f.game, threadPosts())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Posts)
	assert.Equal(t, 3, res.Votes)
	assert.Equal(t, int64(4), res.LastSequence)

	again, err := f.votes.Ingest(ctx, f.game, threadPosts())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Posts)
	assert.Equal(t, 4, again.Skipped)

	ledger, err := f.votes.Repository().ListByGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 3)
	for _, v := range ledger {
		assert.Equal(t, tally.DispositionPending, v.Disposition)
		assert.Empty(t, v.TargetID)
	}
}

func TestFailedIngestStoresNothingAndRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	db := f.votes.db.Database

	reject := bson.D{
		{Key: "collMod", Value: models.VotesCollection},
		{Key: "validator", Value: bson.M{"raw_target": bson.M{"$ne": "Smith"}}},
		{Key: "validationLevel", Value: "strict"},
		{Key: "validationAction", Value: "error"},
	}
	require.NoError(t, db.RunCommand(ctx, reject).Err())

	_, err := f.votes.Ingest(ctx, f.game, threadPosts())
	require.Error(t, err)

	posts, pages, err := f.games.Posts(ctx, f.game.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, pages)
	ledger, err := f.votes.Repository().ListByGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
	game, err := f.games.GetByID(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, f.game.LastPostSequence, game.LastPostSequence)

	accept := bson.D{
		{Key: "collMod", Value: models.VotesCollection},
		{Key: "validator", Value: bson.M{}},
	}
	require.NoError(t, db.RunCommand(ctx, accept).Err())

	res, err := f.votes.Ingest(ctx, game, threadPosts())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Posts)
	assert.Equal(t, 3, res.Votes)
	assert.Equal(t, int64(4), res.LastSequence)

	ledger, err = f.votes.Repository().ListByGame(ctx, f.game.ID)
	require.NoError(t, err)
	texts := make([]string, 0, len(ledger))
	for _, v := range ledger {
		texts = append(texts, v.RawTarget)
	}
	assert.ElementsMatch(t, []string{"Bob", "Smith", "bob"}, texts)
}

func TestIngestSurfacesPostLookupFailures(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.votes.Ingest(ctx, f.game, threadPosts())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, tally.ErrNotFound)
	assert.ErrorContains(t, err, "failed to check post 1")

	game, err := f.games.GetByID(context.Background(), f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, f.game.LastPostSequence, game.LastPostSequence)
}

func TestVoteCountWithoutDayIsBroken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.votes.Ingest(ctx, f.game, threadPosts())
	require.NoError(t, err)

	view, err := f.votes.VoteCount(ctx, f.game)
	require.NoError(t, err)
	assert.True(t, view.Broken)
	assert.Nil(t, view.Count)
}

func TestVoteCountResolveAndReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.votes.Ingest(ctx, f.game, threadPosts())
	require.NoError(t, err)
	f.openDayOne(t)

	view, err := f.votes.VoteCount(ctx, f.game)
	require.NoError(t, err)
	require.False(t, view.Broken)
	require.Len(t, view.Count.Lines, 1)
	assert.Equal(t, "Bob", view.Count.Lines[0].TargetName)
	assert.Equal(t, 2, view.Count.Lines[0].VotesReceived)
	assert.Equal(t, 2, view.Count.ToExecute)

	pending, err := f.votes.Pending(ctx, f.game)
	require.NoError(t, err)
	require.Len(t, pending.Pending, 1)
	assert.Equal(t, "Smith", pending.Pending[0].RawTarget)
	assert.Len(t, pending.Candidates, 3)

	carol := f.playerID(t, "Carol")
	resolved, err := f.votes.Resolve(ctx, f.game, pending.Pending[0].ID, tally.Assign{Participant: tally.ParticipantID(carol)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resolved.Updated)
	assert.Equal(t, "Smith", resolved.Alias)

	aliases, err := f.players.ListAliases(ctx, carol)
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.Equal(t, "Smith", aliases[0].Text)

	replaced, err := f.votes.Replace(ctx, f.game, carol, "Dave", false)
	require.NoError(t, err)
	assert.Equal(t, 2, replaced.Affected)
	assert.Equal(t, 0, replaced.Deleted)

	view, err = f.votes.VoteCount(ctx, f.game)
	require.NoError(t, err)
	require.Len(t, view.Count.Lines, 2)
	assert.Equal(t, "Bob", view.Count.Lines[0].TargetName)
	assert.Equal(t, "Dave", view.Count.Lines[1].TargetName)
	assert.Equal(t, "Dave", view.Count.Lines[0].Votes[1].Author)

	updates, err := f.games.Updates(ctx, f.game.ID, 1)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "Carol is replaced by Dave.", updates[0].Message)
	assert.False(t, updates[0].Critical)
}

func TestResolveRejectsOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.votes.Ingest(ctx, f.game, threadPosts())
	require.NoError(t, err)
	f.openDayOne(t)

	pending, err := f.votes.Pending(ctx, f.game)
	require.NoError(t, err)
	require.Len(t, pending.Pending, 1)

	outsider := f.playerID(t, "Zed")
	_, err = f.votes.Resolve(ctx, f.game, pending.Pending[0].ID, tally.Assign{Participant: tally.ParticipantID(outsider)})
	assert.ErrorIs(t, err, tally.ErrNotFound)

	_, err = f.votes.Resolve(ctx, f.game, pending.Pending[0].ID, tally.Ignore{})
	require.NoError(t, err)
	_, err = f.votes.Resolve(ctx, f.game, pending.Pending[0].ID, tally.NoExecute{})
	assert.ErrorIs(t, err, tally.ErrConflict)
}

func TestManualAndGlobalVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.votes.AddManualVote(ctx, f.game, ManualVote{TargetID: f.playerID(t, "Alice")})
	assert.ErrorIs(t, err, tally.ErrMissingDayBoundary)

	_, err = f.votes.Ingest(ctx, f.game, threadPosts())
	require.NoError(t, err)
	f.openDayOne(t)

	vote, err := f.votes.AddManualVote(ctx, f.game, ManualVote{AuthorID: f.playerID(t, "Bob"), TargetID: f.playerID(t, "Alice")})
	require.NoError(t, err)
	assert.Equal(t, tally.OrderKey{PostSequence: 1, Index: 0}, vote.Order)
	assert.Equal(t, tally.DispositionResolved, vote.Disposition)

	_, err = f.votes.AddManualVote(ctx, f.game, ManualVote{TargetID: f.playerID(t, "Zed")})
	assert.ErrorIs(t, err, tally.ErrNotFound)

	global, err := f.votes.AddGlobalVote(ctx, f.game)
	require.NoError(t, err)
	require.Len(t, global, 3)
	assert.Equal(t, 1, global[0].Order.Index)
	assert.Equal(t, 3, global[2].Order.Index)

	require.NoError(t, f.votes.DeleteVote(ctx, f.game, vote.ID))
	assert.ErrorIs(t, f.votes.DeleteVote(ctx, f.game, vote.ID), tally.ErrNotFound)
}

func TestReplaceSettlesVotesCastAtOutgoingByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.votes.Ingest(ctx, f.game, threadPosts())
	require.NoError(t, err)
	f.openDayOne(t)

	bob := f.playerID(t, "Bob")
	replaced, err := f.votes.Replace(ctx, f.game, bob, "Dave", false)
	require.NoError(t, err)
	assert.Equal(t, 3, replaced.Affected)

	ledger, err := f.votes.Repository().ListByGame(ctx, f.game.ID)
	require.NoError(t, err)
	settled := 0
	for _, v := range ledger {
		if v.RawTarget == "Bob" || v.RawTarget == "bob" {
			assert.Equal(t, replaced.IncomingID, v.TargetID)
			assert.Equal(t, tally.DispositionResolved, v.Disposition)
			settled++
		}
	}
	assert.Equal(t, 2, settled)

	view, err := f.votes.VoteCount(ctx, f.game)
	require.NoError(t, err)
	require.Len(t, view.Count.Lines, 1)
	assert.Equal(t, "Dave", view.Count.Lines[0].TargetName)
	assert.Equal(t, 2, view.Count.Lines[0].VotesReceived)
}

func TestRejectedReplaceCreatesNoPlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.playerID(t, "Bob")

	_, err := f.votes.Replace(ctx, f.game, "not-a-player", "Newcomer", false)
	assert.ErrorIs(t, err, tally.ErrNotFound)
	_, err = f.players.Repository().GetByName(ctx, "Newcomer")
	assert.ErrorIs(t, err, tally.ErrNotFound)

	_, err = f.votes.Replace(ctx, f.game, bob, "Alice", false)
	assert.ErrorIs(t, err, tally.ErrConflict)

	replaced, err := f.votes.Replace(ctx, f.game, bob, "Newcomer", false)
	require.NoError(t, err)
	created, err := f.players.Repository().GetByName(ctx, "Newcomer")
	require.NoError(t, err)
	assert.Equal(t, created.ID, replaced.IncomingID)
}

func TestReplaceRefusesGameModerator(t *testing.T) {
	f := newFixture(t)
	_, err := f.votes.Replace(context.Background(), f.game, f.game.ModeratorID, "Dave", false)
	assert.ErrorIs(t, err, tally.ErrConflict)
}

func TestIngestRejectsClosedGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	closed, err := f.games.Close(ctx, f.game, "")
	require.NoError(t, err)

	_, err = f.votes.Ingest(ctx, closed, threadPosts())
	assert.ErrorIs(t, err, tally.ErrConflict)
}
