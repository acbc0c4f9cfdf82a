package services

import (
	"context"
	"fmt"
	"time"
)

const InactivitySweepTask = "inactivity-sweep"

// GameCloser closes started games that went quiet.
type GameCloser interface {
	CloseInactive(ctx context.Context, maxAge time.Duration) ([]string, error)
}

// InactivitySweep closes started games whose last post is older than the given number of days.
func InactivitySweep(games GameCloser, days int, schedule string) Definition {
	maxAge := time.Duration(days) * 24 * time.Hour
	return Definition{
		Name:        InactivitySweepTask,
		Description: fmt.Sprintf("Closes started games with no posts for %d days", days),
		Schedule:    schedule,
		Timeout:     10 * time.Minute,
		Run: func(ctx context.Context) (string, error) {
			closed, err := games.CloseInactive(ctx, maxAge)
			if len(closed) == 0 {
				return "no inactive games", err
			}
			return fmt.Sprintf("closed %d games: %v", len(closed), closed), err
		},
	}
}
