package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bignstrong/RailGuard/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisConfigFor(t *testing.T, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}
}

func TestNewStores_Disabled(t *testing.T) {
	stores, err := NewStores(context.Background(), config.RedisConfig{}, time.Hour)
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, "memory", stores.Backend())
	assert.IsType(t, &InMemoryCartStore{}, stores.Carts)
	assert.NoError(t, stores.Ping(context.Background()))
}

func TestNewStores_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	stores, err := NewStores(context.Background(), redisConfigFor(t, mr), time.Hour)
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, "redis", stores.Backend())
	assert.IsType(t, &RedisCartStore{}, stores.Carts)
	assert.NoError(t, stores.Ping(context.Background()))
}

func TestNewStores_Fallback(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := redisConfigFor(t, mr)
	mr.Close()

	stores, err := NewStores(context.Background(), cfg, time.Hour)
	require.NoError(t, err)
	defer stores.Close()
	assert.Equal(t, "memory", stores.Backend())

	_, err = NewStores(context.Background(), cfg, time.Hour, WithInMemoryFallback(false))
	assert.Error(t, err)
}
