package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"boutique/internal/cache"
	"boutique/internal/models"
	"boutique/internal/repositories"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// CartSession is the per-visitor storage holding the cart binding.
type CartSession interface {
	CartID() string
	BindCart(cartID string) error
	UnbindCart() error
}

// CartSummary is a cart with its derived amounts.
type CartSummary struct {
	Cart          *models.Cart    `json:"cart"`
	TotalQuantity int             `json:"total_quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
}

type CartService struct {
	store   *repositories.Store
	cache   cache.CartCache
	pricing models.Pricing
	sfg     singleflight.Group // coalesces concurrent cache misses per cart

	// gens counts invalidations per cart. A load only writes its copy back
	// if no invalidation happened since it started.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewCartService(store *repositories.Store, cartCache cache.CartCache, pricing models.Pricing) *CartService {
	if cartCache == nil {
		cartCache = cache.Nop{}
	}
	return &CartService{
		store:   store,
		cache:   cartCache,
		pricing: pricing,
		gens:    make(map[string]uint64),
	}
}

// GetOrCreateCart returns the cart bound to the session, creating and binding
// a new one when none is bound or the bound cart no longer exists.
func (s *CartService) GetOrCreateCart(ctx context.Context, sess CartSession) (*models.Cart, error) {
	if id := sess.CartID(); id != "" {
		cart, err := s.load(ctx, id)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	cart := &models.Cart{}
	if err := s.store.Carts().Create(ctx, cart); err != nil {
		return nil, err
	}
	if err := sess.BindCart(cart.ID); err != nil {
		return nil, fmt.Errorf("failed to bind cart to session: %w", err)
	}
	return cart, nil
}

// GetCart returns the session's cart, or an empty unsaved cart when none exists.
func (s *CartService) GetCart(ctx context.Context, sess CartSession) (*models.Cart, error) {
	id := sess.CartID()
	if id == "" {
		return &models.Cart{}, nil
	}
	cart, err := s.load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return &models.Cart{}, nil
	}
	return cart, err
}

// load reads a cart through the cache. The returned cart may be shared with
// concurrent callers and must not be modified.
func (s *CartService) load(ctx context.Context, cartID string) (*models.Cart, error) {
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		gen := s.generation(cartID)
		cart, err := s.cache.Get(ctx, cartID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cart cache get error: %v", err)
		}

		cart, err = s.store.Carts().GetByID(ctx, cartID)
		if err != nil {
			return nil, err
		}
		s.setIfCurrent(ctx, cart, gen)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

// AddItem adds quantity units of a product. An existing line is incremented
// and keeps its original price; a new line captures the current price.
// Stock is not checked here.
func (s *CartService) AddItem(ctx context.Context, cartID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var item *models.CartItem
	add := func(tx *repositories.Store) error {
		product, err := tx.Products().GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if !product.Available {
			return fmt.Errorf("product %s is not available: %w", productID, ErrNotFound)
		}
		exists, err := tx.Carts().Exists(ctx, cartID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("cart %s: %w", cartID, ErrNotFound)
		}

		existing, err := tx.Carts().FindItem(ctx, cartID, productID)
		switch {
		case err == nil:
			if err := tx.Carts().IncrementItemQuantity(ctx, existing.ID, quantity); err != nil {
				return err
			}
			existing.Quantity += quantity
			item = existing
			return nil
		case errors.Is(err, ErrNotFound):
			item = &models.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity, Price: product.Price}
			return tx.Carts().CreateItem(ctx, item)
		default:
			return err
		}
	}

	err := s.store.WithTx(ctx, add)
	if errors.Is(err, repositories.ErrDuplicate) {
		// a concurrent add created the line first; retry as an increment
		err = s.store.WithTx(ctx, add)
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cartID)
	return item, nil
}

// UpdateItemQuantity overwrites a line's quantity. A quantity of zero or less
// removes the line and reports removed.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (removed bool, err error) {
	err = s.store.WithTx(ctx, func(tx *repositories.Store) error {
		if _, err := ownedItem(ctx, tx, cartID, itemID); err != nil {
			return err
		}
		if quantity <= 0 {
			removed = true
			return tx.Carts().DeleteItem(ctx, itemID)
		}
		return tx.Carts().SetItemQuantity(ctx, itemID, quantity)
	})
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, cartID)
	return removed, nil
}

// RemoveItem deletes a line and reports whether the cart is now empty.
func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID string) (empty bool, err error) {
	err = s.store.WithTx(ctx, func(tx *repositories.Store) error {
		if _, err := ownedItem(ctx, tx, cartID, itemID); err != nil {
			return err
		}
		if err := tx.Carts().DeleteItem(ctx, itemID); err != nil {
			return err
		}
		n, err := tx.Carts().CountItems(ctx, cartID)
		empty = n == 0
		return err
	})
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, cartID)
	return empty, nil
}

// Clear deletes the session's cart and its items and unbinds the session.
func (s *CartService) Clear(ctx context.Context, sess CartSession) error {
	if id := sess.CartID(); id != "" {
		err := s.store.WithTx(ctx, func(tx *repositories.Store) error {
			return tx.Carts().Delete(ctx, id)
		})
		if err != nil {
			return err
		}
		s.invalidate(ctx, id)
	}
	return sess.UnbindCart()
}

// Summarize computes the derived amounts of a cart.
func (s *CartService) Summarize(cart *models.Cart) CartSummary {
	return CartSummary{
		Cart:          cart,
		TotalQuantity: cart.TotalQuantity(),
		Subtotal:      cart.Subtotal(),
		ShippingCost:  s.pricing.ShippingCost(*cart),
		TaxAmount:     s.pricing.TaxAmount(*cart),
		Total:         s.pricing.Total(*cart),
	}
}

// Invalidate drops the cached copy of a cart.
func (s *CartService) Invalidate(ctx context.Context, cartID string) {
	s.invalidate(ctx, cartID)
}

func (s *CartService) generation(cartID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[cartID]
}

// setIfCurrent caches cart unless the cart was invalidated after gen was read.
func (s *CartService) setIfCurrent(ctx context.Context, cart *models.Cart, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[cart.ID] != gen {
		return
	}
	if err := s.cache.Set(ctx, cart); err != nil {
		log.Printf("cart cache set error: %v", err)
	}
}

func (s *CartService) invalidate(ctx context.Context, cartID string) {
	s.mu.Lock()
	s.gens[cartID]++
	s.mu.Unlock()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		log.Printf("cart cache invalidation error for %s: %v", cartID, err)
	}
}

func ownedItem(ctx context.Context, tx *repositories.Store, cartID, itemID string) (*models.CartItem, error) {
	item, err := tx.Carts().GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cartID {
		return nil, fmt.Errorf("cart item %s is not in cart %s: %w", itemID, cartID, ErrNotFound)
	}
	return item, nil
}
