package services_test

import (
	"fmt"
	"testing"

	"boutique/internal/models"
	"boutique/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewer(n int) models.Principal {
	return models.Principal{UserID: fmt.Sprintf("user-%d", n), Username: fmt.Sprintf("user%d", n)}
}

func TestRecordReview(t *testing.T) {
	store := newStore(t)
	svc := services.NewReviewService(store)
	lamp := seedProduct(t, store, "Lamp", "40", 1)

	review, err := svc.RecordReview(ctx, buyer, lamp.ID, 4, "  Très belle lampe  ")
	require.NoError(t, err)
	assert.True(t, review.Approved)
	assert.Equal(t, "Très belle lampe", review.Comment)

	_, err = svc.RecordReview(ctx, buyer, lamp.ID, 5, "encore")
	assert.ErrorIs(t, err, services.ErrDuplicateReview)

	for _, rating := range []int{0, 6, -1} {
		_, err = svc.RecordReview(ctx, reviewer(rating), lamp.ID, rating, "")
		assert.ErrorIs(t, err, services.ErrInvalidRating, "rating %d", rating)
	}

	_, err = svc.RecordReview(ctx, models.Principal{}, lamp.ID, 3, "")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	_, err = svc.RecordReview(ctx, reviewer(1), "missing", 3, "")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRatingSummary(t *testing.T) {
	store := newStore(t)
	svc := services.NewReviewService(store)
	lamp := seedProduct(t, store, "Lamp", "40", 1)

	for i, rating := range []int{5, 5, 4} {
		_, err := svc.RecordReview(ctx, reviewer(i), lamp.ID, rating, "")
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx, lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, "4.67", summary.Average.String())
	require.Len(t, summary.Distribution, 5)
	assert.Equal(t, int64(2), summary.Distribution[5].Count)
	assert.Equal(t, "66.67", summary.Distribution[5].Percentage.String())
	assert.Equal(t, "33.33", summary.Distribution[4].Percentage.String())
	assert.True(t, summary.Distribution[1].Percentage.IsZero())

	avg, err := svc.AverageRating(ctx, lamp.ID)
	require.NoError(t, err)
	assert.True(t, avg.Equal(summary.Average))
}

func TestRatingSummary_NoReviews(t *testing.T) {
	store := newStore(t)
	svc := services.NewReviewService(store)
	lamp := seedProduct(t, store, "Lamp", "40", 1)

	dist, err := svc.RatingDistribution(ctx, lamp.ID)
	require.NoError(t, err)
	require.Len(t, dist, 5)
	for rating, bucket := range dist {
		assert.Zero(t, bucket.Count, "rating %d", rating)
		assert.True(t, bucket.Percentage.IsZero(), "rating %d", rating)
	}

	avg, err := svc.AverageRating(ctx, lamp.ID)
	require.NoError(t, err)
	assert.True(t, avg.IsZero())
}

func TestUnapprovedReviewsAreExcluded(t *testing.T) {
	store := newStore(t)
	svc := services.NewReviewService(store)
	lamp := seedProduct(t, store, "Lamp", "40", 1)

	kept, err := svc.RecordReview(ctx, reviewer(1), lamp.ID, 5, "")
	require.NoError(t, err)
	hidden, err := svc.RecordReview(ctx, reviewer(2), lamp.ID, 1, "spam")
	require.NoError(t, err)

	_, err = svc.SetApproval(ctx, buyer, hidden.ID, false)
	assert.ErrorIs(t, err, services.ErrForbidden)

	updated, err := svc.SetApproval(ctx, staff, hidden.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Approved)

	summary, err := svc.Summary(ctx, lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Total)
	assert.Equal(t, "5", summary.Average.String())
	assert.Zero(t, summary.Distribution[1].Count)

	page, err := svc.ListForProduct(ctx, lamp.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Reviews, 1)
	assert.Equal(t, kept.ID, page.Reviews[0].ID)
}
