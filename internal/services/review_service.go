package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"boutique/internal/models"
	"boutique/internal/money"
	"boutique/internal/repositories"

	"github.com/shopspring/decimal"
)

const reviewPageSize = 10

// RatingBucket is the share of approved reviews with one rating value.
type RatingBucket struct {
	Count      int64           `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// RatingSummary aggregates the approved reviews of a product.
type RatingSummary struct {
	Total        int64                `json:"total"`
	Average      decimal.Decimal      `json:"average"`
	Distribution map[int]RatingBucket `json:"distribution"`
}

// ReviewPage is one page of a product's reviews.
type ReviewPage struct {
	Reviews []models.Review `json:"reviews"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
}

// ReviewService records product reviews and aggregates their ratings.
type ReviewService struct {
	store *repositories.Store
}

func NewReviewService(store *repositories.Store) *ReviewService {
	return &ReviewService{store: store}
}

// RecordReview stores one review per (product, user), approved by default.
func (s *ReviewService) RecordReview(ctx context.Context, p models.Principal, productID string, rating int, comment string) (*models.Review, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, ErrInvalidRating
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    p.UserID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		Approved:  true,
	}
	err := s.store.WithTx(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Products().GetByID(ctx, productID); err != nil {
			return err
		}
		exists, err := tx.Reviews().Exists(ctx, productID, p.UserID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateReview
		}
		return tx.Reviews().Create(ctx, review)
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, ErrDuplicateReview
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// RatingDistribution returns, for each rating 1..5, the count and percentage
// of approved reviews. Percentages are zero when there are none.
func (s *ReviewService) RatingDistribution(ctx context.Context, productID string) (map[int]RatingBucket, error) {
	summary, err := s.Summary(ctx, productID)
	if err != nil {
		return nil, err
	}
	return summary.Distribution, nil
}

// AverageRating is the mean approved rating rounded to two decimals, zero without reviews.
func (s *ReviewService) AverageRating(ctx context.Context, productID string) (decimal.Decimal, error) {
	summary, err := s.Summary(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return summary.Average, nil
}

// Summary computes total, average and distribution in one read.
func (s *ReviewService) Summary(ctx context.Context, productID string) (*RatingSummary, error) {
	counts, err := s.store.Reviews().CountApprovedByRating(ctx, productID)
	if err != nil {
		return nil, err
	}

	var total, sum int64
	for rating, n := range counts {
		total += n
		sum += int64(rating) * n
	}

	summary := &RatingSummary{
		Total:        total,
		Average:      decimal.Zero,
		Distribution: make(map[int]RatingBucket, models.MaxRating),
	}
	if total > 0 {
		summary.Average = decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(total), 2)
	}
	for rating := models.MinRating; rating <= models.MaxRating; rating++ {
		summary.Distribution[rating] = RatingBucket{
			Count:      counts[rating],
			Percentage: money.Percent(counts[rating], total),
		}
	}
	return summary, nil
}

// ListForProduct pages through the approved reviews of a product.
func (s *ReviewService) ListForProduct(ctx context.Context, productID string, page int) (*ReviewPage, error) {
	reviews, total, err := s.store.Reviews().ListApproved(ctx, productID, repositories.Page{Number: page, Size: reviewPageSize})
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	return &ReviewPage{Reviews: reviews, Total: total, Page: page}, nil
}

// SetApproval publishes or hides a review.
func (s *ReviewService) SetApproval(ctx context.Context, p models.Principal, reviewID string, approved bool) (*models.Review, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if err := s.store.Reviews().SetApproved(ctx, reviewID, approved); err != nil {
		return nil, fmt.Errorf("set approval: %w", err)
	}
	return s.store.Reviews().GetByID(ctx, reviewID)
}
