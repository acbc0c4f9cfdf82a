package services

import (
	"context"
	"testing"

	gamemodels "github.com/LoganMeitz/votefinder/internal/games/models"
	votemodels "github.com/LoganMeitz/votefinder/internal/votes/models"
	"github.com/LoganMeitz/votefinder/pkg/database/dbtest"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type recordingGrants struct {
	moves [][2]string
}

func (r *recordingGrants) MovePlayer(from, to string) error {
	r.moves = append(r.moves, [2]string{from, to})
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingGrants) {
	t.Helper()
	db := dbtest.NewMongoDB(t)
	grants := &recordingGrants{}
	svc := NewService(db, grants, "Anonymous")
	require.NoError(t, svc.Repository().CreateIndexes(context.Background()))
	return svc, grants
}

func TestFindOrCreateIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, "Mister Wolf")
	require.NoError(t, err)
	assert.Equal(t, "mister-wolf", first.Slug)

	again, err := svc.FindOrCreate(ctx, "mister wolf ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := svc.Create(ctx, "Mister-Wolf", "")
	require.NoError(t, err)
	assert.Equal(t, "mister-wolf-2", other.Slug)

	_, err = svc.Create(ctx, "MISTER WOLF", "")
	assert.ErrorIs(t, err, tally.ErrConflict)
}

func TestAnonymousIsStable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Anonymous(ctx)
	require.NoError(t, err)
	b, err := svc.Anonymous(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.True(t, a.Anonymous)
}

func TestDeleteAliasPermissions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	owner, err := svc.Create(ctx, "Owner", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddAlias(ctx, owner.ID, "own"))
	require.NoError(t, svc.AddAlias(ctx, owner.ID, "OWN"), "re-adding a spelling is a no-op")

	aliases, err := svc.ListAliases(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, aliases, 1)

	assert.ErrorIs(t, svc.DeleteAlias(ctx, aliases[0].ID, "someone-else", false), ErrForbidden)
	require.NoError(t, svc.DeleteAlias(ctx, aliases[0].ID, owner.ID, false))
	assert.ErrorIs(t, svc.DeleteAlias(ctx, aliases[0].ID, owner.ID, true), tally.ErrNotFound)
}

func TestMerge(t *testing.T) {
	svc, grants := newTestService(t)
	ctx := context.Background()
	db := svc.db.Database

	from, err := svc.Create(ctx, "Alt Account", "")
	require.NoError(t, err)
	into, err := svc.Create(ctx, "Main Account", "")
	require.NoError(t, err)

	require.NoError(t, svc.AddAlias(ctx, from.ID, "alt"))
	require.NoError(t, svc.AddAlias(ctx, from.ID, "shared"))
	require.NoError(t, svc.AddAlias(ctx, into.ID, "shared"))

	_, err = db.Collection(gamemodels.GamesCollection).InsertOne(ctx, gamemodels.Game{ID: "g1", ModeratorID: from.ID})
	require.NoError(t, err)
	_, err = db.Collection(gamemodels.PlayerStatesCollection).InsertMany(ctx, []interface{}{
		gamemodels.PlayerState{ID: "s1", GameID: "g2", PlayerID: from.ID, Status: tally.StatusAlive},
		gamemodels.PlayerState{ID: "s2", GameID: "g3", PlayerID: from.ID, Status: tally.StatusAlive},
		gamemodels.PlayerState{ID: "s3", GameID: "g3", PlayerID: into.ID, Status: tally.StatusDead},
	})
	require.NoError(t, err)
	_, err = db.Collection(votemodels.VotesCollection).InsertMany(ctx, []interface{}{
		votemodels.Vote{ID: "v1", GameID: "g2", AuthorID: from.ID, TargetID: "x"},
		votemodels.Vote{ID: "v2", GameID: "g2", AuthorID: "x", TargetID: from.ID},
	})
	require.NoError(t, err)

	result, err := svc.Merge(ctx, from.ID, into.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Games)
	assert.Equal(t, int64(1), result.States)
	assert.Equal(t, int64(1), result.Aliases)
	assert.Equal(t, int64(2), result.Votes)
	assert.Equal(t, [][2]string{{from.ID, into.ID}}, grants.moves)

	_, err = svc.Get(ctx, from.ID)
	assert.ErrorIs(t, err, tally.ErrNotFound)

	n, err := db.Collection(gamemodels.PlayerStatesCollection).CountDocuments(ctx, bson.M{"player_id": into.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	aliases, err := svc.ListAliases(ctx, into.ID)
	require.NoError(t, err)
	assert.Len(t, aliases, 2)

	_, err = svc.Merge(ctx, into.ID, into.ID)
	assert.ErrorIs(t, err, tally.ErrConflict)
}

func TestMergeSettlesPendingVotesNamingFrom(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	db := svc.db.Database

	from, err := svc.Create(ctx, "Carol", "")
	require.NoError(t, err)
	into, err := svc.Create(ctx, "Caroline", "")
	require.NoError(t, err)
	voter, err := svc.Create(ctx, "Alice", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddAlias(ctx, from.ID, "cc"))

	_, err = db.Collection(gamemodels.PlayerStatesCollection).InsertMany(ctx, []interface{}{
		gamemodels.PlayerState{ID: "s1", GameID: "g1", PlayerID: from.ID, Status: tally.StatusAlive},
		gamemodels.PlayerState{ID: "s2", GameID: "g1", PlayerID: voter.ID, Status: tally.StatusAlive},
	})
	require.NoError(t, err)
	_, err = db.Collection(votemodels.VotesCollection).InsertMany(ctx, []interface{}{
		votemodels.Vote{ID: "v1", GameID: "g1", AuthorID: voter.ID, RawTarget: "carol", Disposition: tally.DispositionPending},
		votemodels.Vote{ID: "v2", GameID: "g1", AuthorID: voter.ID, RawTarget: "CC", Disposition: tally.DispositionPending},
		votemodels.Vote{ID: "v3", GameID: "g1", AuthorID: voter.ID, RawTarget: "somebody", Disposition: tally.DispositionPending},
		votemodels.Vote{ID: "v4", GameID: "g2", AuthorID: voter.ID, RawTarget: "carol", Disposition: tally.DispositionPending},
	})
	require.NoError(t, err)

	result, err := svc.Merge(ctx, from.ID, into.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Settled)

	load := func(id string) votemodels.Vote {
		var v votemodels.Vote
		require.NoError(t, db.Collection(votemodels.VotesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&v))
		return v
	}
	for _, id := range []string{"v1", "v2"} {
		v := load(id)
		assert.Equal(t, into.ID, v.TargetID, id)
		assert.Equal(t, tally.DispositionResolved, v.Disposition, id)
	}
	assert.Equal(t, tally.DispositionPending, load("v3").Disposition)
	assert.Empty(t, load("v4").TargetID)
}
