package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyPrefix = "telegram:update:"

// RedisIdempotencyStore keeps processed update ids in Redis, shared by
// every instance behind the webhook.
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore uses client without taking ownership of it.
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultIdempotencyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: keyPrefix}
}

// MarkProcessed does SET NX with ttl; the value is the unix time of the
// first sighting. A zero ttl keeps the key forever.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	err := s.client.SetArgs(ctx, s.prefix+key, strconv.FormatInt(time.Now().Unix(), 10), redis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	}
	return false, fmt.Errorf("mark update %s: %w", key, err)
}

// Close does nothing; Stores closes the client.
func (s *RedisIdempotencyStore) Close() error { return nil }
