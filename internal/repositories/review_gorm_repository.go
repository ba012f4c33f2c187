package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boutique/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{db: db}
}

func (r *GORMReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", translate(err))
	}
	return nil
}

func (r *GORMReviewRepository) Exists(ctx context.Context, productID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up review: %w", err)
	}
	return n > 0, nil
}

func (r *GORMReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review %s: %w", id, err)
	}
	return &review, nil
}

func (r *GORMReviewRepository) ListApproved(ctx context.Context, productID string, page Page) ([]models.Review, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Review{}).
			Where("product_id = ? AND approved = ?", productID, true)
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	var reviews []models.Review
	if err := paginate(base().Order("created_at DESC"), page).Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

type ratingCount struct {
	Rating int
	Total  int64
}

func (r *GORMReviewRepository) CountApprovedByRating(ctx context.Context, productID string) (map[int]int64, error) {
	var rows []ratingCount
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS total").
		Where("product_id = ? AND approved = ?", productID, true).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count ratings of product %s: %w", productID, err)
	}
	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Total
	}
	return counts, nil
}

func (r *GORMReviewRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	res := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).
		Updates(map[string]any{"approved": approved, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update review %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("review %s not found: %w", id, ErrNotFound)
	}
	return nil
}
