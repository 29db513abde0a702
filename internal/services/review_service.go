package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetcatalog/backend/internal/metrics"
	"github.com/assetcatalog/backend/internal/models"
)

type SubmitReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ReviewSummary is the review list of an asset plus its average rating.
type ReviewSummary struct {
	Reviews []models.Review `json:"reviews"`
	Count   int             `json:"count"`
	Average float64         `json:"average"`
}

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// Submit appends a review. Reviews are never deduplicated.
func (s *ReviewService) Submit(ctx context.Context, caller *models.User, assetID uuid.UUID, in SubmitReviewInput) (*models.Review, error) {
	if err := RequireUser(caller); err != nil {
		return nil, err
	}
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, NewValidationError("rating", fmt.Sprintf("must be between %d and %d", models.MinRating, models.MaxRating))
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		AssetID: asset.ID,
		UserID:  caller.ID,
		Rating:  in.Rating,
		Comment: strings.TrimSpace(in.Comment),
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	review.User = caller

	metrics.ReviewsSubmitted.WithLabelValues(strconv.Itoa(in.Rating)).Inc()
	return review, nil
}

// List returns the reviews of an asset, newest first.
func (s *ReviewService) List(ctx context.Context, caller *models.User, assetID uuid.UUID) (*ReviewSummary, error) {
	asset, err := s.findAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if err := CanRead(caller, asset); err != nil {
		return nil, err
	}

	var reviews []models.Review
	err = s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "role")
		}).
		Where("asset_id = ?", asset.ID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	summary := &ReviewSummary{Reviews: reviews, Count: len(reviews)}
	if len(reviews) > 0 {
		total := 0
		for _, r := range reviews {
			total += r.Rating
		}
		summary.Average = float64(total) / float64(len(reviews))
	}
	return summary, nil
}

func (s *ReviewService) findAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "find asset")
	}
	return &asset, nil
}
