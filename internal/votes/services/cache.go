package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LoganMeitz/votefinder/pkg/database"

	"github.com/klauspost/compress/zstd"
)

const tallyKeyPrefix = "votefinder:tally:"

// TallyCache keeps rendered projections in Redis under the snapshot fingerprint, so a key can
// never serve a stale tally: any ledger, roster or day change produces a new key.
type TallyCache struct {
	redis   *database.Redis
	ttl     time.Duration
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewTallyCache returns a cache; with a nil redis every lookup misses.
func NewTallyCache(redis *database.Redis, ttl time.Duration) (*TallyCache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &TallyCache{redis: redis, ttl: ttl, encoder: enc, decoder: dec}, nil
}

func tallyKey(gameSlug, view, fingerprint string) string {
	return tallyKeyPrefix + gameSlug + ":" + view + ":" + fingerprint
}

func (c *TallyCache) encode(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func (c *TallyCache) decode(data []byte, dest interface{}) error {
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Get fills dest and reports true on a hit.
func (c *TallyCache) Get(ctx context.Context, gameSlug, view, fingerprint string, dest interface{}) bool {
	if c == nil || c.redis == nil {
		return false
	}
	data, err := c.redis.GetBytes(ctx, tallyKey(gameSlug, view, fingerprint))
	if err != nil {
		if !errors.Is(err, database.ErrCacheMiss) {
			slog.WarnContext(ctx, "Tally cache read failed", "game", gameSlug, "error", err)
		}
		return false
	}
	if err := c.decode(data, dest); err != nil {
		slog.WarnContext(ctx, "Discarding corrupt tally cache entry", "game", gameSlug, "error", err)
		return false
	}
	return true
}

func (c *TallyCache) Set(ctx context.Context, gameSlug, view, fingerprint string, v interface{}) {
	if c == nil || c.redis == nil {
		return
	}
	data, err := c.encode(v)
	if err != nil {
		slog.WarnContext(ctx, "Tally cache encode failed", "game", gameSlug, "error", err)
		return
	}
	if err := c.redis.Set(ctx, tallyKey(gameSlug, view, fingerprint), data, c.ttl); err != nil {
		slog.WarnContext(ctx, "Tally cache write failed", "game", gameSlug, "error", err)
	}
}

// Invalidate drops every cached view of the game.
func (c *TallyCache) Invalidate(ctx context.Context, gameSlug string) {
	if c == nil || c.redis == nil {
		return
	}
	if _, err := c.redis.DeletePrefix(ctx, tallyKeyPrefix+gameSlug+":"); err != nil {
		slog.WarnContext(ctx, "Tally cache invalidation failed", "game", gameSlug, "error", err)
	}
}
