// Package idempotency caches settlement outcomes by client-supplied key so
// a retried redeem call credits the wallet once. The database's unique
// redemption constraint remains the hard guard; this store makes retries
// return the original result instead of a conflict.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists idempotency entries in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store with the given retention window.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func storageKey(key string) string {
	return "redeem:idem:" + key
}

// Get returns the earned amount recorded for a key, if any.
func (s *RedisStore) Get(ctx context.Context, key string) (int, bool, error) {
	val, err := s.client.Get(ctx, storageKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("idempotency get %s: %w", key, err)
	}

	earned, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency decode %s: %w", key, err)
	}
	return earned, true, nil
}

// Put records the earned amount for a key. First writer wins; a concurrent
// duplicate keeps the original value.
func (s *RedisStore) Put(ctx context.Context, key string, earned int) error {
	if err := s.client.SetNX(ctx, storageKey(key), earned, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency put %s: %w", key, err)
	}
	return nil
}
