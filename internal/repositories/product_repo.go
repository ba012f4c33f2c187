package repositories

import (
	"context"

	"boutique/internal/models"
)

// Product listing sort orders.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID    string
	Query         string
	Sort          string
	OnlyAvailable bool
	Page          Page
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Related(ctx context.Context, product *models.Product, limit int) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) error
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
	Count(ctx context.Context) (int64, error)
}
