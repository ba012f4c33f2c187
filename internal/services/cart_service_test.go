package services_test

import (
	"context"
	"testing"

	"boutique/internal/cache"
	"boutique/internal/models"
	"boutique/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_GetOrCreateCart(t *testing.T) {
	store := newStore(t)
	svc := services.NewCartService(store, nil, models.DefaultPricing())
	sess := &memorySession{}

	cart, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, cart.ID, sess.CartID())

	again, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	// A binding to a deleted cart counts as absent.
	require.NoError(t, store.Carts().Delete(ctx, cart.ID))
	fresh, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, fresh.ID)
	assert.Equal(t, fresh.ID, sess.CartID())
}

func TestCartService_AddItemMergesLines(t *testing.T) {
	store := newStore(t)
	svc := services.NewCartService(store, nil, models.DefaultPricing())
	sess := &memorySession{}
	lamp := seedProduct(t, store, "Lamp", "1000", 1)
	chair := seedProduct(t, store, "Chair", "500", 1)

	cart, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, cart.ID, lamp.ID, 1)
	require.NoError(t, err)

	// The snapshot price survives a catalog price change.
	lamp.Price = price("1200")
	require.NoError(t, store.Products().Update(ctx, lamp))

	item, err := svc.AddItem(ctx, cart.ID, lamp.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	// Quantities beyond stock are accepted in the cart.
	_, err = svc.AddItem(ctx, cart.ID, chair.ID, 1)
	require.NoError(t, err)

	got, err := svc.GetCart(ctx, sess)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	summary := svc.Summarize(got)
	assert.Equal(t, 3, summary.TotalQuantity)
	assert.Equal(t, "2500", summary.Subtotal.String())
	assert.Equal(t, "500", summary.TaxAmount.String())
	assert.True(t, summary.ShippingCost.IsZero())
	assert.Equal(t, "2500", summary.Total.String())
}

func TestCartService_AddItemRejections(t *testing.T) {
	store := newStore(t)
	svc := services.NewCartService(store, nil, models.DefaultPricing())
	sess := &memorySession{}
	lamp := seedProduct(t, store, "Lamp", "40", 3)

	cart, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, cart.ID, lamp.ID, 0)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, cart.ID, "missing", 1)
	assert.ErrorIs(t, err, services.ErrNotFound)

	lamp.Available = false
	require.NoError(t, store.Products().Update(ctx, lamp))
	_, err = svc.AddItem(ctx, cart.ID, lamp.ID, 1)
	assert.ErrorIs(t, err, services.ErrNotFound)

	n, err := store.Carts().CountItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	store := newStore(t)
	svc := services.NewCartService(store, nil, models.DefaultPricing())
	sess := &memorySession{}
	lamp := seedProduct(t, store, "Lamp", "40", 3)
	chair := seedProduct(t, store, "Chair", "60", 3)

	cart, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)
	lampItem, err := svc.AddItem(ctx, cart.ID, lamp.ID, 1)
	require.NoError(t, err)
	chairItem, err := svc.AddItem(ctx, cart.ID, chair.ID, 1)
	require.NoError(t, err)

	removed, err := svc.UpdateItemQuantity(ctx, cart.ID, lampItem.ID, 4)
	require.NoError(t, err)
	assert.False(t, removed)
	got, err := svc.GetCart(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalQuantity())

	removed, err = svc.UpdateItemQuantity(ctx, cart.ID, lampItem.ID, 0)
	require.NoError(t, err)
	assert.True(t, removed)

	// Items of another cart are not reachable.
	other, err := svc.GetOrCreateCart(ctx, &memorySession{})
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, other.ID, chairItem.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	empty, err := svc.RemoveItem(ctx, cart.ID, chairItem.ID)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestCartService_Clear(t *testing.T) {
	store := newStore(t)
	svc := services.NewCartService(store, nil, models.DefaultPricing())
	sess := &memorySession{}
	lamp := seedProduct(t, store, "Lamp", "40", 3)

	cart, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, lamp.ID, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, sess))
	assert.Empty(t, sess.CartID())
	exists, err := store.Carts().Exists(ctx, cart.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := svc.GetCart(ctx, sess)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestCartService_ReadsThroughRedis(t *testing.T) {
	store := newStore(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := services.NewCartService(store, cache.NewRedisCache(client), models.DefaultPricing())
	sess := &memorySession{}
	lamp := seedProduct(t, store, "Lamp", "40", 3)

	cart, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, lamp.ID, 1)
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:"+cart.ID))

	got, err := svc.GetCart(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalQuantity())
	assert.True(t, mr.Exists("cart:"+cart.ID))

	// Mutations invalidate the cached copy.
	_, err = svc.AddItem(ctx, cart.ID, lamp.ID, 2)
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:"+cart.ID))

	got, err = svc.GetCart(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalQuantity())
}

// missHookCache runs onMiss once, right after the first cache miss.
type missHookCache struct {
	cache.CartCache
	onMiss func()
}

func (c *missHookCache) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	cart, err := c.CartCache.Get(ctx, cartID)
	if err != nil && c.onMiss != nil {
		hook := c.onMiss
		c.onMiss = nil
		hook()
	}
	return cart, err
}

func TestCartService_LoadDoesNotCacheAcrossInvalidation(t *testing.T) {
	store := newStore(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	hooked := &missHookCache{CartCache: cache.NewRedisCache(client)}
	svc := services.NewCartService(store, hooked, models.DefaultPricing())
	sess := &memorySession{}
	lamp := seedProduct(t, store, "Lamp", "40", 3)

	cart, err := svc.GetOrCreateCart(ctx, sess)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, cart.ID, lamp.ID, 1)
	require.NoError(t, err)

	// A write lands while the read is in flight.
	hooked.onMiss = func() {
		_, err := svc.AddItem(ctx, cart.ID, lamp.ID, 2)
		require.NoError(t, err)
	}
	_, err = svc.GetCart(ctx, sess)
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:"+cart.ID))

	got, err := svc.GetCart(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalQuantity())
	assert.True(t, mr.Exists("cart:"+cart.ID))
}
