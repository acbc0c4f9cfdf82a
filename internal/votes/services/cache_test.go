package services

import (
	"context"
	"testing"
	"time"

	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyCacheEncoding(t *testing.T) {
	cache, err := NewTallyCache(nil, time.Minute)
	require.NoError(t, err)

	in := tally.VoteCount{
		Day:       2,
		Alive:     5,
		ToExecute: 3,
		Lines: []tally.VoteCountLine{{
			TargetName:    "Carol",
			VotesReceived: 1,
			Votes:         []tally.VoteCountMark{{Author: "Alice", Enabled: true, Counting: true}},
		}},
		NotVoting: []string{"Bob"},
		Pending:   []tally.PendingLine{},
	}
	data, err := cache.encode(in)
	require.NoError(t, err)

	var out tally.VoteCount
	require.NoError(t, cache.decode(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, cache.decode([]byte("not zstd"), &out))
}

func TestTallyCacheWithoutRedis(t *testing.T) {
	cache, err := NewTallyCache(nil, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	cache.Set(ctx, "game", "votecount", "fp", tally.VoteCount{Day: 1})
	var out tally.VoteCount
	assert.False(t, cache.Get(ctx, "game", "votecount", "fp", &out))
	cache.Invalidate(ctx, "game")

	var nilCache *TallyCache
	assert.False(t, nilCache.Get(ctx, "game", "votecount", "fp", &out))
}

func TestTallyKey(t *testing.T) {
	assert.Equal(t, "votefinder:tally:mafia-1:votecount:abc", tallyKey("mafia-1", "votecount", "abc"))
}
