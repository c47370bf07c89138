package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for multi-process deployments
// where all replicas must share one budget. It implements the same fixed
// window discipline as MemoryStore using INCR with a TTL set on the
// first hit of each window; entries clean themselves up via key expiry,
// so no sweep is needed.
type RedisStore struct {
	redis *redis.Client

	// Prefix namespaces the counter keys. Defaults to "ratelimit".
	Prefix string
}

// NewRedisStore creates a Redis-backed rate limit store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: client, Prefix: "ratelimit"}
}

// CheckAndIncrement implements Store. A denied request decrements the
// counter back so it does not consume budget, matching MemoryStore.
func (s *RedisStore) CheckAndIncrement(ctx context.Context, clientID, ruleKey string, limit int, window time.Duration) (Decision, error) {
	key := fmt.Sprintf("%s:%s:%s", s.Prefix, clientID, ruleKey)

	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis incr: %w", err)
	}

	// First hit of a window opens it.
	if count == 1 {
		if err := s.redis.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis expire: %w", err)
		}
	}

	ttl, err := s.redis.TTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl < 0 {
		// Key exists without expiry (e.g. Expire failed earlier);
		// repair it so the window still rolls over.
		ttl = window
		if err := s.redis.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis expire: %w", err)
		}
	}
	resetAt := time.Now().Add(ttl)

	if count > int64(limit) {
		if err := s.redis.Decr(ctx, key).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis decr: %w", err)
		}
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}, nil
}
