package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LoganMeitz/votefinder/pkg/database"
	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/google/uuid"
)

// GameLocks serializes post ingestion per game. Redis backs the lock when available so that
// several API instances agree; otherwise a process-local mutex is used.
type GameLocks struct {
	redis *database.Redis
	ttl   time.Duration
	local sync.Map // game id -> *sync.Mutex
}

func NewGameLocks(redis *database.Redis, ttl time.Duration) *GameLocks {
	return &GameLocks{redis: redis, ttl: ttl}
}

func lockKey(gameID string) string {
	return "votefinder:lock:game:" + gameID
}

// TryLock takes the game's refresh lock without waiting. The returned release func must be
// called once the work is done. ErrConflict means someone else holds it.
func (l *GameLocks) TryLock(ctx context.Context, gameID string) (func(), error) {
	if l.redis == nil {
		m, _ := l.local.LoadOrStore(gameID, &sync.Mutex{})
		mu := m.(*sync.Mutex)
		if !mu.TryLock() {
			return nil, fmt.Errorf("refresh already running for game %s: %w", gameID, tally.ErrConflict)
		}
		return mu.Unlock, nil
	}

	token := uuid.NewString()
	ok, err := l.redis.TryLock(ctx, lockKey(gameID), token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to take game lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("refresh already running for game %s: %w", gameID, tally.ErrConflict)
	}
	return func() {
		// the request context may already be cancelled
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.redis.Unlock(unlockCtx, lockKey(gameID), token); err != nil {
			slog.Warn("Failed to release game lock", "game_id", gameID, "error", err)
		}
	}, nil
}
