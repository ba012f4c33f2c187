package repositories

import (
	"context"

	"boutique/internal/models"

	"github.com/shopspring/decimal"
)

// OrderFilter narrows the back-office order listing.
type OrderFilter struct {
	Status models.OrderStatus
	Query  string
	Page   Page
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// GetByIDForUpdate loads the order under a row lock when the dialect has one.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Order, error)
	// TransitionFrom applies updates only while the order is still in status from.
	// It reports false when the guard no longer holds.
	TransitionFrom(ctx context.Context, id string, from models.OrderStatus, updates map[string]any) (bool, error)
	SetPaymentSession(ctx context.Context, id, sessionID string) error
	Update(ctx context.Context, id string, updates map[string]any) error
	ListByUser(ctx context.Context, userID string, page Page) ([]models.Order, int64, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	Latest(ctx context.Context, limit int) ([]models.Order, error)
	LatestByUser(ctx context.Context, userID string, limit int) ([]models.Order, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	// PaidRevenue sums total_amount over paid orders.
	PaidRevenue(ctx context.Context) (decimal.Decimal, error)
}
