package oneshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of redis.Cmdable used by RedisStore.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore is a Store backed by Redis. Values are JSON encoded.
// GETDEL requires Redis 6.2 or newer.
type RedisStore[V any] struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a RedisStore writing keys as prefix+key with the given ttl.
func NewRedisStore[V any](client RedisClient, prefix string, ttl time.Duration) *RedisStore[V] {
	return &RedisStore[V]{client: client, prefix: prefix, ttl: ttl}
}

// Put stores value under key with SET EX, replacing any previous value.
func (s *RedisStore[V]) Put(ctx context.Context, key string, value V) error {
	if key == "" {
		return ErrEmptyKey
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("oneshot: encode value: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("oneshot: redis set: %w", err)
	}
	return nil
}

// Take atomically reads and deletes key with GETDEL.
func (s *RedisStore[V]) Take(ctx context.Context, key string) (V, error) {
	if key == "" {
		var v V
		return v, ErrEmptyKey
	}
	return s.decode(s.client.GetDel(ctx, s.prefix+key), "getdel")
}

// Get reads key with GET and leaves it in place.
func (s *RedisStore[V]) Get(ctx context.Context, key string) (V, error) {
	if key == "" {
		var v V
		return v, ErrEmptyKey
	}
	return s.decode(s.client.Get(ctx, s.prefix+key), "get")
}

func (s *RedisStore[V]) decode(cmd *redis.StringCmd, op string) (V, error) {
	var v V
	raw, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return v, ErrNotFound
	}
	if err != nil {
		return v, fmt.Errorf("oneshot: redis %s: %w", op, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("oneshot: decode value: %w", err)
	}
	return v, nil
}

var (
	_ PeekStore[string] = (*MemoryStore[string])(nil)
	_ PeekStore[string] = (*RedisStore[string])(nil)
	_ RedisClient       = (*redis.Client)(nil)
)
