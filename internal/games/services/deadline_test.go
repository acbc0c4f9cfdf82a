package services

import (
	"testing"
	"time"

	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeadline(t *testing.T) {
	got, err := ParseDeadline("2024-03-01T18:30:00Z", "America/New_York")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)))

	got, err = ParseDeadline("2024-03-01T18:30", "America/New_York")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)), got)

	got, err = ParseDeadline("2024-07-01 09:00", "Europe/London")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)), got)

	_, err = ParseDeadline("tomorrow-ish", "UTC")
	assert.ErrorIs(t, err, tally.ErrConflict)

	_, err = ParseDeadline("2024-03-01T18:30", "Not/AZone")
	assert.ErrorIs(t, err, tally.ErrConflict)
}

func TestFormatDeadline(t *testing.T) {
	dl := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "Friday, March 01 at 06:30 PM EST", FormatDeadline(dl, "America/New_York"))
	assert.Equal(t, "Friday, March 01 at 11:30 PM UTC", FormatDeadline(dl, "UTC"))
}
