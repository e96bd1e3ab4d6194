package cache

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bignstrong/RailGuard/internal/domain/cart"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCartStore(t *testing.T, ttl time.Duration) (*RedisCartStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCartStore(client, ttl), mr
}

func sampleCart(session string) *cart.Cart {
	c := cart.New(session)
	old := decimal.NewFromInt(1500)
	c.AddItem(cart.Item{ID: "ff-1", Title: "Фильтр топливный", Price: decimal.NewFromInt(1200), OldPrice: &old, Image: "/img/ff-1.png"})
	c.AddItem(cart.Item{ID: "ff-1", Title: "Фильтр топливный", Price: decimal.NewFromInt(1200), OldPrice: &old, Image: "/img/ff-1.png"})
	c.AddItem(cart.Item{ID: "ff-2", Title: "Сепаратор", Price: decimal.NewFromInt(8000), Image: "/img/ff-2.png"})
	return c
}

func TestRedisCartStore_SaveAndGet(t *testing.T) {
	store, mr := setupRedisCartStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCart("s-1")))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.TotalPrice().Equal(decimal.NewFromInt(10400)))
	require.NotNil(t, got.Items[0].OldPrice)
	assert.True(t, got.Items[0].OldPrice.Equal(decimal.NewFromInt(1500)))

	ttl := mr.TTL(cartKey("s-1"))
	assert.GreaterOrEqual(t, ttl, time.Hour)
	assert.LessOrEqual(t, ttl, time.Hour+3*time.Minute)
}

func TestRedisCartStore_Miss(t *testing.T) {
	store, _ := setupRedisCartStore(t, time.Hour)

	got, err := store.Get(context.Background(), "absent")

	assert.ErrorIs(t, err, cart.ErrCartNotFound)
	assert.Nil(t, got)
}

func TestRedisCartStore_Expired(t *testing.T) {
	store, mr := setupRedisCartStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleCart("s-2")))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "s-2")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestRedisCartStore_InvalidJSON(t *testing.T) {
	store, mr := setupRedisCartStore(t, time.Hour)
	require.NoError(t, mr.Set(cartKey("bad"), "{not json"))

	_, err := store.Get(context.Background(), "bad")

	require.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrCartNotFound)
}

func TestRedisCartStore_StoredAsJSON(t *testing.T) {
	store, mr := setupRedisCartStore(t, time.Hour)
	require.NoError(t, store.Save(context.Background(), sampleCart("s-3")))

	raw, err := mr.Get(cartKey("s-3"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "s-3", doc["sessionId"])
}

func TestRedisCartStore_Delete(t *testing.T) {
	store, mr := setupRedisCartStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleCart("s-4")))

	require.NoError(t, store.Delete(ctx, "s-4"))
	require.NoError(t, store.Delete(ctx, "s-4"))

	assert.False(t, mr.Exists(cartKey("s-4")))
}

func TestRedisCartStore_Unavailable(t *testing.T) {
	store, mr := setupRedisCartStore(t, time.Hour)
	mr.Close()

	_, err := store.Get(context.Background(), "s-5")

	require.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrCartNotFound)
}

func TestRedisCartStore_Take(t *testing.T) {
	store, mr := setupRedisCartStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleCart("s-6")))

	got, err := store.Take(ctx, "s-6")
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.False(t, mr.Exists(cartKey("s-6")))

	_, err = store.Take(ctx, "s-6")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestRedisCartStore_Update(t *testing.T) {
	store, mr := setupRedisCartStore(t, time.Hour)
	ctx := context.Background()

	got, err := store.Update(ctx, "s-7", func(c *cart.Cart) {
		c.AddItem(cart.Item{ID: "ff-1", Price: decimal.NewFromInt(100)})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalItems())
	assert.GreaterOrEqual(t, mr.TTL(cartKey("s-7")), time.Hour)

	const writers = 10
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "s-7", func(c *cart.Cart) {
				c.AddItem(cart.Item{ID: "ff-1", Price: decimal.NewFromInt(100)})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := store.Get(ctx, "s-7")
	require.NoError(t, err)
	assert.Equal(t, writers+1, stored.Items[0].Quantity)
}

func TestInMemoryCartStore(t *testing.T) {
	store := NewInMemoryCartStore(time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "s-1")
	require.ErrorIs(t, err, cart.ErrCartNotFound)

	c := sampleCart("s-1")
	require.NoError(t, store.Save(ctx, c))

	c.Items[0].Quantity = 99
	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)

	got.Clear()
	again, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, again.Items, 2)

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestInMemoryCartStore_Expiry(t *testing.T) {
	store := NewInMemoryCartStore(time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCart("s-1")))
	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestInMemoryCartStore_TakeAndUpdate(t *testing.T) {
	store := NewInMemoryCartStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	got, err := store.Update(ctx, "s-1", func(c *cart.Cart) {
		c.AddItem(cart.Item{ID: "ff-1", Price: decimal.NewFromInt(100)})
	})
	require.NoError(t, err)
	got.Items[0].Quantity = 50

	taken, err := store.Take(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, taken.Items[0].Quantity, "returned cart is a copy")

	_, err = store.Take(ctx, "s-1")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
	_, err = store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestInMemoryCartStore_TakeExpired(t *testing.T) {
	store := NewInMemoryCartStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCart("s-1")))
	now = now.Add(2 * time.Minute)

	_, err := store.Take(ctx, "s-1")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
	assert.Equal(t, 0, store.size())
}

func TestInMemoryCartStore_Sweep(t *testing.T) {
	store := NewInMemoryCartStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCart("old")))
	now = now.Add(50 * time.Second)
	require.NoError(t, store.Save(ctx, sampleCart("fresh")))
	assert.Equal(t, 2, store.size(), "saving does not sweep")

	store.sweep(now.Add(20 * time.Second))

	assert.Equal(t, 1, store.size())
	_, err := store.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestInMemoryCartStore_SweepLoop(t *testing.T) {
	store := NewInMemoryCartStore(20 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCart("s-1")))

	assert.Eventually(t, func() bool { return store.size() == 0 }, time.Second, 10*time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
