package repositories

import (
	"context"

	"boutique/internal/models"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Exists(ctx context.Context, productID, userID string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Review, error)
	// ListApproved returns one page of the approved reviews of a product, newest first.
	ListApproved(ctx context.Context, productID string, page Page) ([]models.Review, int64, error)
	// CountApprovedByRating maps each rating value present to its number of approved reviews.
	CountApprovedByRating(ctx context.Context, productID string) (map[int]int64, error)
	SetApproved(ctx context.Context, id string, approved bool) error
}
