package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/cart"
	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/bignstrong/RailGuard/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the session-scoped stores backed by the same Redis client
type Stores struct {
	Carts       cart.Repository
	Idempotency shared.IdempotencyStore

	client *redis.Client
}

// StoresOption configures NewStores
type StoresOption func(*storesOptions)

type storesOptions struct {
	logger      *zap.Logger
	allowMemory bool
	pingTimeout time.Duration
}

// WithLogger sets the logger used to report the chosen backend
func WithLogger(logger *zap.Logger) StoresOption {
	return func(o *storesOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores. Default is true.
func WithInMemoryFallback(allow bool) StoresOption {
	return func(o *storesOptions) {
		o.allowMemory = allow
	}
}

// NewStores builds Redis stores when cfg.Enabled and Redis answers a ping,
// otherwise in-memory stores
func NewStores(ctx context.Context, cfg config.RedisConfig, cartTTL time.Duration, opts ...StoresOption) (*Stores, error) {
	o := storesOptions{
		logger:      zap.NewNop(),
		allowMemory: true,
		pingTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		o.logger.Info("redis disabled, using in-memory cart and idempotency stores")
		return newMemoryStores(cartTTL), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !o.allowMemory {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		o.logger.Warn("redis unavailable, falling back to in-memory stores; carts will not survive restarts",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return newMemoryStores(cartTTL), nil
	}

	o.logger.Info("using redis cart and idempotency stores", zap.String("addr", cfg.Addr()))
	return NewRedisStores(client, cartTTL), nil
}

// NewRedisStores builds stores on an existing client; Close closes it
func NewRedisStores(client *redis.Client, cartTTL time.Duration) *Stores {
	return &Stores{
		Carts:       NewRedisCartStore(client, cartTTL),
		Idempotency: NewRedisIdempotencyStore(client, ""),
		client:      client,
	}
}

func newMemoryStores(cartTTL time.Duration) *Stores {
	return &Stores{
		Carts:       NewInMemoryCartStore(cartTTL),
		Idempotency: NewInMemoryIdempotencyStore(0),
	}
}

// Ping checks the backing Redis; in-memory stores are always healthy
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Backend names the active storage for health output
func (s *Stores) Backend() string {
	if s.client == nil {
		return "memory"
	}
	return "redis"
}

// Close releases the stores and the Redis client
func (s *Stores) Close() error {
	if closer, ok := s.Carts.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	if err := s.Idempotency.Close(); err != nil {
		return err
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
