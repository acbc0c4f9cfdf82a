package tally

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanResolutionBatchesMatchingText(t *testing.T) {
	ledger := []Declaration{
		pendingVote("1", "a", "Bobby", 1),
		pendingVote("2", "c", "  bobby", 2),
		pendingVote("3", "d", "Robert", 3),
		voteFor("4", "e", "b", 4),
		unvoteBy("5", "d", 5),
	}
	resolvedBobby := ledger[3]
	resolvedBobby.RawTarget = "bobby"
	ledger[3] = resolvedBobby

	plan, err := PlanResolution(ledger[0], ledger, Assign{Participant: "b"})
	require.NoError(t, err)

	assert.Equal(t, []DeclarationID{"1", "2"}, plan.Declarations)
	assert.Equal(t, DispositionResolved, plan.Disposition)
	assert.Equal(t, ParticipantID("b"), plan.Target)
	require.NotNil(t, plan.Alias)
	assert.Equal(t, Alias{Participant: "b", Text: "Bobby"}, *plan.Alias)

	updated := applyResolution(ledger, plan)
	assert.Equal(t, ParticipantID("b"), updated[0].Target)
	assert.Equal(t, ParticipantID("b"), updated[1].Target)
	assert.Equal(t, DispositionPending, updated[2].Disposition)
	assert.Equal(t, DispositionPending, ledger[0].Disposition)

	res, err := Run(snapshot(updated...))
	require.NoError(t, err)
	assert.Equal(t, 3, findTarget(t, res, "b").Count)
	require.Len(t, res.Pending, 1)
	assert.Equal(t, DeclarationID("3"), res.Pending[0].Declaration)
}

func TestAliasFromResolutionAppliesToOtherGames(t *testing.T) {
	ledger := []Declaration{pendingVote("1", "a", "Bobby", 1)}
	plan, err := PlanResolution(ledger[0], ledger, Assign{Participant: "b"})
	require.NoError(t, err)
	require.NotNil(t, plan.Alias)

	other := Snapshot{
		Roster: []RosterEntry{
			{Participant: Participant{ID: "b", Name: "bob"}, Status: StatusAlive},
			{Participant: Participant{ID: "x", Name: "Xavier"}, Status: StatusAlive},
		},
		Declarations: []Declaration{pendingVote("9", "x", "BOBBY", 1)},
		Aliases:      []Alias{*plan.Alias},
		Day:          &Day{Number: 1},
	}

	res, err := Run(other)
	require.NoError(t, err)
	assert.Equal(t, ParticipantID("b"), res.CurrentVote["x"].Target)
}

func TestPlanResolutionOutcomes(t *testing.T) {
	ledger := []Declaration{
		pendingVote("1", "a", "nobody", 1),
		pendingVote("2", "b", "Nobody", 2),
	}

	t.Run("ignore", func(t *testing.T) {
		plan, err := PlanResolution(ledger[0], ledger, Ignore{})
		require.NoError(t, err)
		assert.Equal(t, DispositionIgnored, plan.Disposition)
		assert.Nil(t, plan.Alias)
		assert.Equal(t, []DeclarationID{"1", "2"}, plan.Declarations)
	})

	t.Run("no execute", func(t *testing.T) {
		plan, err := PlanResolution(ledger[0], ledger, NoExecute{})
		require.NoError(t, err)
		assert.Equal(t, DispositionNoExecute, plan.Disposition)
		assert.Nil(t, plan.Alias)

		res, err := Run(snapshot(applyResolution(ledger, plan)...))
		require.NoError(t, err)
		assert.True(t, res.CurrentVote["a"].NoExecute)
		assert.False(t, res.Statuses["1"].Counting)
		assert.True(t, res.Statuses["1"].Enabled)
	})

	t.Run("assign without participant", func(t *testing.T) {
		_, err := PlanResolution(ledger[0], ledger, Assign{})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("nil decision", func(t *testing.T) {
		_, err := PlanResolution(ledger[0], ledger, nil)
		assert.True(t, errors.Is(err, ErrConflict))
	})
}

func TestPlanResolutionTerminalDeclarations(t *testing.T) {
	resolved := voteFor("1", "a", "b", 1)

	t.Run("same outcome is a no-op", func(t *testing.T) {
		plan, err := PlanResolution(resolved, []Declaration{resolved}, Assign{Participant: "b"})
		require.NoError(t, err)
		assert.Empty(t, plan.Declarations)
	})

	t.Run("different target conflicts", func(t *testing.T) {
		_, err := PlanResolution(resolved, []Declaration{resolved}, Assign{Participant: "c"})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("different disposition conflicts", func(t *testing.T) {
		_, err := PlanResolution(resolved, []Declaration{resolved}, Ignore{})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("unvote conflicts", func(t *testing.T) {
		u := unvoteBy("2", "a", 2)
		_, err := PlanResolution(u, []Declaration{u}, Ignore{})
		assert.True(t, errors.Is(err, ErrConflict))
	})
}

func TestManualDeclarationCreatesNoAlias(t *testing.T) {
	d := pendingVote("1", "a", "Bobby", 1)
	d.Manual = true

	plan, err := PlanResolution(d, []Declaration{d}, Assign{Participant: "b"})
	require.NoError(t, err)
	assert.Nil(t, plan.Alias)
}

func TestPlanReplacementRewritesReferences(t *testing.T) {
	roster := fivePlayers()
	ledger := []Declaration{
		voteFor("1", "a", "c", 1),
		voteFor("2", "b", "a", 2),
		voteFor("3", "a", "a", 3),
		voteFor("4", "d", "e", 4),
		voteFor("5", "a", "b", 11),
		voteFor("6", "c", "a", 12),
	}

	plan, err := PlanReplacement(ledger, roster, nil, "a", "z", false)
	require.NoError(t, err)

	assert.Equal(t, 5, plan.Affected)
	assert.False(t, plan.DeleteIncomingSpectator)
	assert.Empty(t, plan.Delete)
	assert.Equal(t, []Rewrite{
		{Declaration: "1", Author: true},
		{Declaration: "2", Target: true},
		{Declaration: "3", Author: true, Target: true},
		{Declaration: "5", Author: true},
		{Declaration: "6", Target: true},
	}, plan.Rewrites)

	updated, newRoster := applyReplacement(ledger, roster, plan, "Zed")
	require.Len(t, updated, 6)
	for i := range ledger {
		assert.Equal(t, ledger[i].Order, updated[i].Order)
		assert.Equal(t, ledger[i].Timestamp, updated[i].Timestamp)
	}
	assert.Equal(t, ParticipantID("z"), updated[0].Author)
	assert.Equal(t, ParticipantID("z"), updated[1].Target)
	assert.Equal(t, ParticipantID("z"), updated[2].Author)
	assert.Equal(t, ParticipantID("z"), updated[2].Target)
	assert.Equal(t, ledger[3], updated[3])

	require.Len(t, newRoster, 5)
	assert.Equal(t, RosterEntry{Participant: Participant{ID: "z", Name: "Zed"}, Status: StatusAlive}, newRoster[0])

	res, err := Run(Snapshot{Roster: newRoster, Declarations: updated, Day: &Day{Number: 2, StartPost: 10}})
	require.NoError(t, err)

	lines := ProjectVoteLog(res, "z")
	require.Len(t, lines, 3)
	assert.Equal(t, "Zed", lines[0].Voter)
	assert.Equal(t, "Carol", lines[0].Target)
	assert.Equal(t, "Zed", lines[1].Target)
	assert.Equal(t, "bob", lines[2].Target)

	all := ProjectVoteLog(res, "")
	require.Len(t, all, 6)
	assert.Equal(t, "Zed", all[1].Target)
	assert.Equal(t, "Zed", all[5].Target)
	assert.False(t, res.Statuses["2"].InScope)
	assert.True(t, res.Statuses["6"].InScope)

	assert.Equal(t, ParticipantID("b"), res.CurrentVote["z"].Target)
	assert.Equal(t, ParticipantID("z"), res.CurrentVote["c"].Target)
	assert.Equal(t, 1, findTarget(t, res, "z").Count)
}

func TestPlanReplacementCatchesPendingTextForOutgoing(t *testing.T) {
	roster := fivePlayers()
	ledger := []Declaration{
		pendingVote("1", "a", "Carol", 1),
		pendingVote("2", "b", "cc", 2),
		pendingVote("3", "d", "Dave", 3),
		pendingVote("4", "e", "nobody", 4),
	}
	aliases := []Alias{{Participant: "c", Text: "CC"}}

	plan, err := PlanReplacement(ledger, roster, aliases, "c", "z", false)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Affected)
	assert.Equal(t, []Rewrite{
		{Declaration: "1", Target: true, Resolved: true},
		{Declaration: "2", Target: true, Resolved: true},
	}, plan.Rewrites)

	updated, newRoster := applyReplacement(ledger, roster, plan, "Zed")
	assert.Equal(t, ParticipantID("z"), updated[0].Target)
	assert.Equal(t, DispositionResolved, updated[0].Disposition)
	assert.Equal(t, "Carol", updated[0].RawTarget)
	assert.Equal(t, ParticipantID("z"), updated[1].Target)
	assert.Equal(t, ledger[2], updated[2])
	assert.Equal(t, ledger[3], updated[3])

	res, err := Run(Snapshot{Roster: newRoster, Declarations: updated, Aliases: aliases, Day: &Day{Number: 1, StartPost: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, findTarget(t, res, "z").Count)
	assert.Equal(t, ParticipantID("d"), res.CurrentVote["d"].Target)
	require.Len(t, res.Pending, 1)
	assert.Equal(t, DeclarationID("4"), res.Pending[0].Declaration)

	t.Run("clear votes deletes them", func(t *testing.T) {
		plan, err := PlanReplacement(ledger, roster, aliases, "c", "z", true)
		require.NoError(t, err)
		assert.Equal(t, []DeclarationID{"1", "2"}, plan.Delete)
		assert.Empty(t, plan.Rewrites)
	})

	t.Run("author and text both outgoing", func(t *testing.T) {
		self := []Declaration{pendingVote("7", "c", "carol", 1)}
		plan, err := PlanReplacement(self, roster, nil, "c", "z", false)
		require.NoError(t, err)
		assert.Equal(t, []Rewrite{{Declaration: "7", Author: true, Target: true, Resolved: true}}, plan.Rewrites)
	})
}

func TestPlanReplacementClearVotes(t *testing.T) {
	roster := append(fivePlayers(), RosterEntry{
		Participant: Participant{ID: "z", Name: "Zed"},
		Status:      StatusSpectator,
	})
	ledger := []Declaration{
		voteFor("1", "a", "c", 1),
		voteFor("2", "b", "a", 2),
		voteFor("3", "d", "e", 3),
	}

	plan, err := PlanReplacement(ledger, roster, nil, "a", "z", true)
	require.NoError(t, err)

	assert.True(t, plan.DeleteIncomingSpectator)
	assert.Equal(t, []DeclarationID{"1", "2"}, plan.Delete)
	assert.Empty(t, plan.Rewrites)
	assert.Equal(t, 2, plan.Affected)

	updated, newRoster := applyReplacement(ledger, roster, plan, "Zed")
	assert.Equal(t, []Declaration{ledger[2]}, updated)
	require.Len(t, newRoster, 5)
	assert.Equal(t, ParticipantID("z"), newRoster[0].ID)
	assert.Equal(t, StatusAlive, newRoster[0].Status)
}

func TestPlanReplacementPreconditions(t *testing.T) {
	roster := fivePlayers()

	tests := []struct {
		name     string
		outgoing ParticipantID
		incoming ParticipantID
		want     error
	}{
		{"outgoing not in game", "nobody", "z", ErrNotFound},
		{"incoming already playing", "a", "b", ErrConflict},
		{"replacing with self", "a", "a", ErrConflict},
		{"missing incoming", "a", "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanReplacement(nil, roster, nil, tt.outgoing, tt.incoming, false)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func applyResolution(ledger []Declaration, plan ResolutionPlan) []Declaration {
	touched := make(map[DeclarationID]bool, len(plan.Declarations))
	for _, id := range plan.Declarations {
		touched[id] = true
	}
	out := make([]Declaration, len(ledger))
	for i, d := range ledger {
		if touched[d.ID] {
			d.Disposition = plan.Disposition
			d.Target = plan.Target
		}
		out[i] = d
	}
	return out
}

// applyReplacement mirrors the writes the votes service makes for a replacement plan.
func applyReplacement(ledger []Declaration, roster []RosterEntry, plan ReplacementPlan, incomingName string) ([]Declaration, []RosterEntry) {
	deleted := make(map[DeclarationID]bool, len(plan.Delete))
	for _, id := range plan.Delete {
		deleted[id] = true
	}
	rewrites := make(map[DeclarationID]Rewrite, len(plan.Rewrites))
	for _, rw := range plan.Rewrites {
		rewrites[rw.Declaration] = rw
	}

	outLedger := make([]Declaration, 0, len(ledger))
	for _, d := range ledger {
		if deleted[d.ID] {
			continue
		}
		if rw, ok := rewrites[d.ID]; ok {
			if rw.Author {
				d.Author = plan.Incoming
			}
			if rw.Target {
				d.Target = plan.Incoming
			}
			if rw.Resolved {
				d.Disposition = DispositionResolved
			}
		}
		outLedger = append(outLedger, d)
	}

	outRoster := make([]RosterEntry, 0, len(roster))
	for _, entry := range roster {
		if entry.ID == plan.Incoming && plan.DeleteIncomingSpectator {
			continue
		}
		if entry.ID == plan.Outgoing {
			entry.ID = plan.Incoming
			entry.Name = incomingName
		}
		outRoster = append(outRoster, entry)
	}
	return outLedger, outRoster
}
