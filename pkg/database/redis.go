package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LoganMeitz/votefinder/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrCacheMiss is returned by the byte and JSON getters when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// unlockScript deletes a lock only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	tracer trace.Tracer
}

func NewRedis(ctx context.Context) (*Redis, error) {
	opt, err := redis.ParseURL(config.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", opt.Addr)

	return NewRedisFromClient(client), nil
}

// NewRedisFromClient wraps an existing client, used by tests against a throwaway server.
func NewRedisFromClient(client *redis.Client) *Redis {
	r := &Redis{Client: client}
	// Only initialize tracer if telemetry is enabled
	if config.GetBoolEnv("ENABLE_TELEMETRY", false) {
		r.tracer = otel.Tracer("redis-client")
	}
	return r
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

// traced runs op inside a span when telemetry is on.
func (r *Redis) traced(ctx context.Context, operation string, attrs []attribute.KeyValue, op func(context.Context) error) error {
	if r.tracer == nil {
		return op(ctx)
	}
	attrs = append(attrs, attribute.String("redis.operation", operation))
	ctx, span := r.tracer.Start(ctx, "redis."+operation, trace.WithAttributes(attrs...))
	defer span.End()

	err := op(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
	}
	return err
}

func keyAttr(key string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("redis.key", key)}
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.traced(ctx, "set", keyAttr(key), func(ctx context.Context) error {
		return r.Client.Set(ctx, key, value, expiration).Err()
	})
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	var result string
	err := r.traced(ctx, "get", keyAttr(key), func(ctx context.Context) error {
		var err error
		result, err = r.Client.Get(ctx, key).Result()
		return err
	})
	return result, err
}

// GetBytes returns ErrCacheMiss for a missing key.
func (r *Redis) GetBytes(ctx context.Context, key string) ([]byte, error) {
	var result []byte
	err := r.traced(ctx, "get_bytes", keyAttr(key), func(ctx context.Context) error {
		var err error
		result, err = r.Client.Get(ctx, key).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return result, err
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	attrs := []attribute.KeyValue{attribute.StringSlice("redis.keys", keys)}
	return r.traced(ctx, "delete", attrs, func(ctx context.Context) error {
		return r.Client.Del(ctx, keys...).Err()
	})
}

// DeletePrefix removes every key starting with prefix and returns how many were removed.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	removed := 0
	err := r.traced(ctx, "delete_prefix", keyAttr(prefix+"*"), func(ctx context.Context) error {
		iter := r.Client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		n, err := r.Client.Del(ctx, batch...).Result()
		removed = int(n)
		return err
	})
	return removed, err
}

func (r *Redis) Exists(ctx context.Context, keys ...string) (int64, error) {
	var result int64
	attrs := []attribute.KeyValue{attribute.StringSlice("redis.keys", keys)}
	err := r.traced(ctx, "exists", attrs, func(ctx context.Context) error {
		var err error
		result, err = r.Client.Exists(ctx, keys...).Result()
		return err
	})
	return result, err
}

func (r *Redis) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// SetJSON stores a JSON-serializable object in Redis with expiration
func (r *Redis) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	attrs := append(keyAttr(key), attribute.Int("redis.data_size", len(data)))
	return r.traced(ctx, "set_json", attrs, func(ctx context.Context) error {
		return r.Client.Set(ctx, key, data, expiration).Err()
	})
}

// GetJSON retrieves and unmarshals a JSON object from Redis
func (r *Redis) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.GetBytes(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// GetTTL returns the remaining time to live for a key
func (r *Redis) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	var ttl time.Duration
	err := r.traced(ctx, "ttl", keyAttr(key), func(ctx context.Context) error {
		var err error
		ttl, err = r.Client.TTL(ctx, key).Result()
		return err
	})
	return ttl, err
}

// TryLock takes key with SET NX. It reports false without error when someone else holds it.
func (r *Redis) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	var acquired bool
	err := r.traced(ctx, "lock", keyAttr(key), func(ctx context.Context) error {
		var err error
		acquired, err = r.Client.SetNX(ctx, key, token, ttl).Result()
		return err
	})
	return acquired, err
}

// Unlock releases key if token still owns it.
func (r *Redis) Unlock(ctx context.Context, key, token string) error {
	return r.traced(ctx, "unlock", keyAttr(key), func(ctx context.Context) error {
		return unlockScript.Run(ctx, r.Client, []string{key}, token).Err()
	})
}
