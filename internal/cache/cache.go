package cache

import (
	"context"
	"errors"
	"time"

	"boutique/internal/models"
)

// CartCache holds read-side copies of carts keyed by cart id.
type CartCache interface {
	Get(ctx context.Context, cartID string) (*models.Cart, error)
	Set(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, cartID string) error
}

// Deduplicator remembers which external event ids were already handled.
type Deduplicator interface {
	// MarkProcessed records id and reports whether it was seen before.
	MarkProcessed(ctx context.Context, id string) (seen bool, err error)
	// Forget drops id so a later redelivery is handled again.
	Forget(ctx context.Context, id string) error
}

var ErrCacheMiss = errors.New("cache miss")

const dedupTTL = 24 * time.Hour

// Nop is used when no Redis address is configured: every read misses and no
// event id is ever remembered.
type Nop struct{}

func (Nop) Get(context.Context, string) (*models.Cart, error)   { return nil, ErrCacheMiss }
func (Nop) Set(context.Context, *models.Cart) error             { return nil }
func (Nop) Delete(context.Context, string) error                { return nil }
func (Nop) MarkProcessed(context.Context, string) (bool, error) { return false, nil }
func (Nop) Forget(context.Context, string) error                { return nil }
