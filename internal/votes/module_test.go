package votes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGamesPath(t *testing.T) {
	assert.Equal(t, "/api/games", gamesPath("/api/votes"))
	assert.Equal(t, "/games", gamesPath("/votes"))
	assert.Equal(t, "/x/games", gamesPath("/x"))
}
