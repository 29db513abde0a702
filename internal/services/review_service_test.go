package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetcatalog/backend/internal/models"
)

func TestSubmitReview_RatingBounds(t *testing.T) {
	f := newCatalogFixture(t)
	reviews := NewReviewService(f.db)
	asset := f.createAsset(t, nil)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := reviews.Submit(ctx, f.employee, asset.ID, SubmitReviewInput{Rating: rating})
		assert.Contains(t, fieldMessages(t, err), "rating", "rating %d", rating)
	}

	for _, rating := range []int{models.MinRating, models.MaxRating} {
		review, err := reviews.Submit(ctx, f.employee, asset.ID, SubmitReviewInput{Rating: rating, Comment: " useful "})
		require.NoError(t, err)
		assert.Equal(t, rating, review.Rating)
		assert.Equal(t, "useful", review.Comment)
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Review{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSubmitReview_Guards(t *testing.T) {
	f := newCatalogFixture(t)
	reviews := NewReviewService(f.db)
	asset := f.createAsset(t, nil)
	ctx := context.Background()

	_, err := reviews.Submit(ctx, nil, asset.ID, SubmitReviewInput{Rating: 3})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = reviews.Submit(ctx, f.employee, uuid.New(), SubmitReviewInput{Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReviews_NewestFirstWithAverage(t *testing.T) {
	f := newCatalogFixture(t)
	reviews := NewReviewService(f.db)
	asset := f.createAsset(t, nil)
	ctx := context.Background()

	for _, rating := range []int{5, 2, 4} {
		_, err := reviews.Submit(ctx, f.employee, asset.ID, SubmitReviewInput{Rating: rating})
		require.NoError(t, err)
	}

	// Duplicates from the same reviewer are kept.
	summary, err := reviews.List(ctx, f.owner, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 11.0/3.0, summary.Average, 0.0001)
	require.Len(t, summary.Reviews, 3)
	assert.Equal(t, 4, summary.Reviews[0].Rating)
	require.NotNil(t, summary.Reviews[0].User)
	assert.Equal(t, f.employee.Name, summary.Reviews[0].User.Name)

	_, err = reviews.List(ctx, nil, asset.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated, "draft reviews are hidden from anonymous callers")

	f.publish(t, asset)
	summary, err = reviews.List(ctx, nil, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
}

func TestListReviews_Empty(t *testing.T) {
	f := newCatalogFixture(t)
	asset := f.createAsset(t, nil)

	summary, err := NewReviewService(f.db).List(context.Background(), f.owner, asset.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Count)
	assert.Zero(t, summary.Average)
}
