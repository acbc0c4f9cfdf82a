package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdatesPath(t *testing.T) {
	assert.Equal(t, "/api/updates", updatesPath("/api/games"))
	assert.Equal(t, "/updates", updatesPath("/games"))
	assert.Equal(t, "/x/updates", updatesPath("/x"))
}
