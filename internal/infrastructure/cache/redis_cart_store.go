package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 10

// RedisCartStore keeps carts as JSON documents keyed by session
type RedisCartStore struct {
	client  *redis.Client
	baseTTL time.Duration
	jitter  time.Duration
}

// NewRedisCartStore creates a cart store. Entries expire after ttl plus up to
// ttl/20 of jitter so carts saved together do not expire together.
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{
		client:  client,
		baseTTL: ttl,
		jitter:  ttl / 20,
	}
}

// Get loads the cart for sessionID or returns cart.ErrCartNotFound
func (s *RedisCartStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	return decodeCart(data)
}

// Save stores c and refreshes its expiry
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(c.SessionID), data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete removes the cart for sessionID; missing carts are not an error
func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

// Update runs fn inside a WATCH transaction and retries when another writer
// changes the cart first
func (s *RedisCartStore) Update(ctx context.Context, sessionID string, fn func(*cart.Cart)) (*cart.Cart, error) {
	key := cartKey(sessionID)
	var result *cart.Cart

	txf := func(tx *redis.Tx) error {
		c := cart.New(sessionID)
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get cart: %w", err)
		default:
			if c, err = decodeCart(data); err != nil {
				return err
			}
		}

		fn(c)
		out, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl())
			return nil
		})
		if err == nil {
			result = c
		}
		return err
	}

	for range maxUpdateRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("redis update cart: %w", err)
		}
	}
	return nil, fmt.Errorf("redis update cart: %d attempts conflicted", maxUpdateRetries)
}

// Take reads and deletes the cart with GETDEL
func (s *RedisCartStore) Take(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := s.client.GetDel(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis take cart: %w", err)
	}
	return decodeCart(data)
}

func (s *RedisCartStore) ttl() time.Duration {
	if s.jitter <= 0 {
		return s.baseTTL
	}
	return s.baseTTL + rand.N(s.jitter)
}

func decodeCart(data []byte) (*cart.Cart, error) {
	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &c, nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

var _ cart.Repository = (*RedisCartStore)(nil)
