package cache

import (
	"context"
	"testing"
	"time"

	"boutique/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestSetThenGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := &models.Cart{
		ID: "cart-1",
		Items: []models.CartItem{
			{ID: "i1", CartID: "cart-1", ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("12.50")},
		},
	}
	require.NoError(t, c.Set(ctx, cart))

	ttl := mr.TTL(cartKey("cart-1"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	got, err := c.Get(ctx, "cart-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "25", got.Subtotal().String())
}

func TestGetMissAndInvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)

	mr.Set(cartKey("broken"), "{not json")
	_, err = c.Get(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestDelete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.Cart{ID: "cart-2"}))
	require.NoError(t, c.Delete(ctx, "cart-2"))
	assert.False(t, mr.Exists(cartKey("cart-2")))
}

func TestMarkProcessed(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	seen, err := c.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = c.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, dedupTTL, mr.TTL(dedupKey("evt_1")))

	require.NoError(t, c.Forget(ctx, "evt_1"))
	seen, err = c.MarkProcessed(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisUnavailable(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "cart-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
