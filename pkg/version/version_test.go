package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })

	Version, GitCommit = "1.4.0", "unknown"
	assert.Equal(t, "1.4.0", String())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, "1.4.0 (0123456)", String())

	GitCommit = "abc"
	assert.Equal(t, "1.4.0 (abc)", String())
}
