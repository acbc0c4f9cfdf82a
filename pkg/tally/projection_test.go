package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectTally(t *testing.T) {
	s := snapshot(
		voteFor("1", "a", "c", 1),
		voteFor("2", "b", "c", 2),
		voteFor("3", "a", "d", 3),
		unvoteBy("4", "b", 4),
		pendingVote("5", "e", "Smith", 5),
	)
	s.Declarations[2].URL = "https://forum.example/p/3"
	res, err := Run(s)
	require.NoError(t, err)

	vc := ProjectTally(res, ProjectionOptions{})
	assert.Equal(t, 1, vc.Day)
	assert.Equal(t, 5, vc.Alive)
	assert.Equal(t, 3, vc.ToExecute)
	require.Len(t, vc.Lines, 2)

	assert.Equal(t, "Dave", vc.Lines[0].TargetName)
	assert.Equal(t, 1, vc.Lines[0].VotesReceived)
	assert.Equal(t, []VoteCountMark{
		{Author: "Alice", Enabled: true, Counting: true, URL: "https://forum.example/p/3"},
	}, vc.Lines[0].Votes)

	assert.Equal(t, "Carol", vc.Lines[1].TargetName)
	assert.Equal(t, 0, vc.Lines[1].VotesReceived)
	assert.Equal(t, []VoteCountMark{
		{Author: "Alice"},
		{Author: "bob", Unvote: true},
	}, vc.Lines[1].Votes)

	assert.Equal(t, []string{"bob", "Carol", "Dave"}, vc.NotVoting)
	assert.Equal(t, []PendingLine{{Declaration: "5", Author: "Eve", RawTarget: "Smith"}}, vc.Pending)

	hidden := ProjectTally(res, ProjectionOptions{HideZeroVotes: true})
	require.Len(t, hidden.Lines, 1)
	assert.Equal(t, "Dave", hidden.Lines[0].TargetName)
}

func TestProjectTallyNoExecuteLine(t *testing.T) {
	d := pendingVote("1", "a", "no lynch", 1)
	d.Disposition = DispositionNoExecute

	res, err := Run(snapshot(d))
	require.NoError(t, err)

	vc := ProjectTally(res, ProjectionOptions{})
	require.Len(t, vc.Lines, 1)
	assert.Equal(t, NoExecuteLabel, vc.Lines[0].TargetName)
	assert.True(t, vc.Lines[0].NoExecute)
	assert.Equal(t, 0, vc.Lines[0].VotesReceived)
	assert.False(t, vc.Lines[0].Votes[0].Counting)
}

func TestProjectTallyEmptyGame(t *testing.T) {
	res, err := Run(Snapshot{Day: &Day{Number: 1}})
	require.NoError(t, err)

	vc := ProjectTally(res, ProjectionOptions{})
	assert.NotNil(t, vc.Lines)
	assert.NotNil(t, vc.NotVoting)
	assert.NotNil(t, vc.Pending)
	assert.Equal(t, 1, vc.ToExecute)
}

func TestProjectVoteLog(t *testing.T) {
	s := snapshot(
		voteFor("1", "a", "c", 1),
		pendingVote("2", "b", "Smith", 2),
		unvoteBy("3", "a", 3),
	)
	res, err := Run(s)
	require.NoError(t, err)

	all := ProjectVoteLog(res, "")
	require.Len(t, all, 3)
	assert.Equal(t, VoteLogLine{Voter: "Alice", Target: "Carol", Resolved: true, Timestamp: s.Declarations[0].Timestamp}, all[0])
	assert.Equal(t, VoteLogLine{Voter: "bob", Target: "Smith", Timestamp: s.Declarations[1].Timestamp}, all[1])
	assert.Equal(t, VoteLogLine{Voter: "Alice", Unvote: true, Timestamp: s.Declarations[2].Timestamp}, all[2])

	alice := ProjectVoteLog(res, "a")
	assert.Len(t, alice, 2)
	assert.Empty(t, ProjectVoteLog(res, "e"))
}

func TestProjectionsDoNotMutateResult(t *testing.T) {
	s := snapshot(voteFor("1", "a", "c", 1), voteFor("2", "b", "c", 2))
	res, err := Run(s)
	require.NoError(t, err)
	again, err := Run(s)
	require.NoError(t, err)

	ProjectTally(res, ProjectionOptions{HideZeroVotes: true})
	ProjectVoteLog(res, "a")

	assert.Equal(t, again, res)
}
