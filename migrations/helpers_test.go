package migrations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIndexExistsError(t *testing.T) {
	assert.False(t, isIndexExistsError(nil))
	assert.False(t, isIndexExistsError(errors.New("connection refused")))
	assert.True(t, isIndexExistsError(errors.New("Index with name: slug_1 already exists with different options")))
	assert.True(t, isIndexExistsError(errors.New("(IndexOptionsConflict) conflict")))
}

func TestMigrationsAreRegisteredOnce(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range registeredMigrations {
		assert.False(t, seen[m.Version], m.Version)
		seen[m.Version] = true
		assert.NotNil(t, m.Up, m.Version)
		assert.NotEmpty(t, m.Description, m.Version)
	}
	assert.Len(t, seen, 6)
}
