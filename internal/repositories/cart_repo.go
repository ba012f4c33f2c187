package repositories

import (
	"context"

	"boutique/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	Create(ctx context.Context, cart *models.Cart) error
	// GetByID loads the cart with its items and their products.
	GetByID(ctx context.Context, id string) (*models.Cart, error)
	Exists(ctx context.Context, id string) (bool, error)
	// FindItem returns the line for (cartID, productID) or ErrNotFound.
	FindItem(ctx context.Context, cartID, productID string) (*models.CartItem, error)
	GetItem(ctx context.Context, itemID string) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	SetItemQuantity(ctx context.Context, itemID string, quantity int) error
	// IncrementItemQuantity adds delta to the line in a single UPDATE.
	IncrementItemQuantity(ctx context.Context, itemID string, delta int) error
	DeleteItem(ctx context.Context, itemID string) error
	CountItems(ctx context.Context, cartID string) (int64, error)
	// Delete removes the cart and its items.
	Delete(ctx context.Context, id string) error
}
