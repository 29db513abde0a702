package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/assetcatalog/backend/internal/metrics"
	"github.com/assetcatalog/backend/internal/models"
)

// DefaultChangeNote is recorded when an edit bumps the version without a note.
const DefaultChangeNote = "Version update"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AttachmentInput struct {
	URL  string `json:"url" binding:"required,max=1024"`
	Name string `json:"name" binding:"required,max=255"`
	Size int64  `json:"size" binding:"min=0"`
	Type string `json:"type" binding:"max=120"`
}

type CreateAssetInput struct {
	Title          string            `json:"title" binding:"required,min=2,max=255"`
	Category       string            `json:"category" binding:"required,min=1,max=64"`
	Overview       string            `json:"overview" binding:"required,min=10"`
	Features       string            `json:"features"`
	Prerequisites  string            `json:"prerequisites"`
	UsageGuideline string            `json:"usage_guideline"`
	ContactPoint   string            `json:"contact_point" binding:"required,email"`
	GithubURL      string            `json:"github_url" binding:"omitempty,url"`
	QAReviewed     bool              `json:"qa_reviewed"`
	QAReviewURL    string            `json:"qa_review_url" binding:"omitempty,url"`
	LegalReviewed  bool              `json:"legal_reviewed"`
	LegalReviewURL string            `json:"legal_review_url" binding:"omitempty,url"`
	Attachments    []AttachmentInput `json:"attachments" binding:"omitempty,max=20,dive"`
}

// UpdateAssetInput carries a full edit. Version is always explicit;
// Changes is the note stored with the history row when it differs.
type UpdateAssetInput struct {
	Title          string `json:"title" binding:"required,min=2,max=255"`
	Category       string `json:"category" binding:"required,min=1,max=64"`
	Overview       string `json:"overview" binding:"required,min=10"`
	Features       string `json:"features"`
	Prerequisites  string `json:"prerequisites"`
	UsageGuideline string `json:"usage_guideline"`
	ContactPoint   string `json:"contact_point" binding:"required,email"`
	GithubURL      string `json:"github_url" binding:"omitempty,url"`
	QAReviewed     bool   `json:"qa_reviewed"`
	QAReviewURL    string `json:"qa_review_url" binding:"omitempty,url"`
	LegalReviewed  bool   `json:"legal_reviewed"`
	LegalReviewURL string `json:"legal_review_url" binding:"omitempty,url"`
	Version        string `json:"version" binding:"required,semver"`
	Changes        string `json:"changes" binding:"max=1000"`
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Query    string
	Category string
	Status   models.AssetStatus
	Page     int
	Limit    int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	if strings.EqualFold(f.Category, "all") {
		f.Category = ""
	}
}

// Normalized returns the filter with defaults and bounds applied.
func (f ListFilter) Normalized() ListFilter {
	f.normalize()
	return f
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

type AssetService struct {
	db        *gorm.DB
	lifecycle *LifecycleMachine
}

func NewAssetService(db *gorm.DB, lifecycle *LifecycleMachine) *AssetService {
	if lifecycle == nil {
		lifecycle = NewLifecycleMachine(PermissiveTransitions())
	}
	return &AssetService{db: db, lifecycle: lifecycle}
}

// Lifecycle exposes the transition table in use.
func (s *AssetService) Lifecycle() *LifecycleMachine {
	return s.lifecycle
}

// Create registers a new DRAFT asset at version 1.0.0 owned by the caller.
func (s *AssetService) Create(ctx context.Context, caller *models.User, in CreateAssetInput) (*models.Asset, error) {
	if err := RequireUser(caller); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	asset := &models.Asset{
		Title:          strings.TrimSpace(in.Title),
		Category:       strings.TrimSpace(in.Category),
		Status:         models.AssetStatusDraft,
		Version:        models.InitialAssetVersion,
		Overview:       in.Overview,
		Features:       in.Features,
		Prerequisites:  in.Prerequisites,
		UsageGuideline: in.UsageGuideline,
		ContactPoint:   strings.TrimSpace(in.ContactPoint),
		GithubURL:      in.GithubURL,
		QAReviewed:     in.QAReviewed,
		QAReviewURL:    in.QAReviewURL,
		LegalReviewed:  in.LegalReviewed,
		LegalReviewURL: in.LegalReviewURL,
		OwnerID:        caller.ID,
	}
	for _, att := range in.Attachments {
		asset.Attachments = append(asset.Attachments, models.Attachment{
			URL:  att.URL,
			Name: att.Name,
			Size: att.Size,
			Type: att.Type,
		})
	}

	// Attachments are created by gorm's association save within the same transaction.
	if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}

	metrics.AssetsCreated.Inc()
	return asset, nil
}

// Get returns an asset with owner, version history, attachments and reviews.
func (s *AssetService) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Reviews.User").
		First(&asset, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, "get asset")
	}

	if err := CanRead(caller, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// Edit applies a full update. When the version string changes, the previous
// version is appended to the history in the same transaction. Status is untouched.
func (s *AssetService) Edit(ctx context.Context, caller *models.User, id uuid.UUID, in UpdateAssetInput) (*models.Asset, error) {
	if err := RequireUser(caller); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	asset, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanMutate(caller, asset); err != nil {
		return nil, err
	}

	newVersion := strings.TrimSpace(in.Version)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if newVersion != asset.Version {
			note := strings.TrimSpace(in.Changes)
			if note == "" {
				note = DefaultChangeNote
			}
			snapshot := &models.AssetVersion{
				AssetID: asset.ID,
				Version: asset.Version,
				Changes: note,
			}
			if err := tx.Create(snapshot).Error; err != nil {
				return fmt.Errorf("append version history: %w", err)
			}
		}

		updates := map[string]interface{}{
			"title":            strings.TrimSpace(in.Title),
			"category":         strings.TrimSpace(in.Category),
			"overview":         in.Overview,
			"features":         in.Features,
			"prerequisites":    in.Prerequisites,
			"usage_guideline":  in.UsageGuideline,
			"contact_point":    strings.TrimSpace(in.ContactPoint),
			"github_url":       in.GithubURL,
			"qa_reviewed":      in.QAReviewed,
			"qa_review_url":    in.QAReviewURL,
			"legal_reviewed":   in.LegalReviewed,
			"legal_review_url": in.LegalReviewURL,
			"version":          newVersion,
		}
		if err := tx.Model(asset).Updates(updates).Error; err != nil {
			return fmt.Errorf("update asset: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.find(ctx, id)
}

// Delete removes an asset together with its history, attachments, reviews and usage rows.
func (s *AssetService) Delete(ctx context.Context, caller *models.User, id uuid.UUID) error {
	if err := RequireUser(caller); err != nil {
		return err
	}

	asset, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := CanMutate(caller, asset); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		children := []interface{}{
			&models.AssetVersion{},
			&models.Attachment{},
			&models.Review{},
			&models.UsageHistory{},
		}
		for _, child := range children {
			if err := tx.Where("asset_id = ?", asset.ID).Delete(child).Error; err != nil {
				return fmt.Errorf("delete asset children: %w", err)
			}
		}
		result := tx.Delete(&models.Asset{}, "id = ?", asset.ID)
		if result.Error != nil {
			return fmt.Errorf("delete asset: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// TransitionStatus sets the status of an asset. Admin only.
func (s *AssetService) TransitionStatus(ctx context.Context, caller *models.User, id uuid.UUID, status models.AssetStatus) (*models.Asset, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("must be one of: %s", statusNames()))
	}

	asset, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanTransition(caller, asset); err != nil {
		return nil, err
	}
	if err := s.lifecycle.ValidateTransition(asset.Status, status); err != nil {
		return nil, err
	}

	from := asset.Status
	if err := s.db.WithContext(ctx).Model(asset).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update asset status: %w", err)
	}

	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	logrus.WithFields(logrus.Fields{
		"asset_id": asset.ID,
		"admin_id": caller.ID,
		"from":     from,
		"to":       status,
	}).Info("Asset status changed")

	return asset, nil
}

// RecordUsage logs an access request and bumps the usage counter atomically.
func (s *AssetService) RecordUsage(ctx context.Context, caller *models.User, id uuid.UUID) (*models.UsageHistory, error) {
	if err := RequireUser(caller); err != nil {
		return nil, err
	}

	asset, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := &models.UsageHistory{
		AssetID: asset.ID,
		UserID:  caller.ID,
		Status:  models.UsageStatusApproved,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("append usage history: %w", err)
		}
		result := tx.Model(&models.Asset{}).
			Where("id = ?", asset.ID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
		if result.Error != nil {
			return fmt.Errorf("increment usage count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.UsageRequests.Inc()
	return entry, nil
}

// List returns published assets matching the filter, newest first.
func (s *AssetService) List(ctx context.Context, filter ListFilter) ([]*models.Asset, int64, error) {
	filter.normalize()
	filter.Status = models.AssetStatusPublished
	return s.list(ctx, filter)
}

// AdminList returns assets in every status. Admin only.
func (s *AssetService) AdminList(ctx context.Context, caller *models.User, filter ListFilter) ([]*models.Asset, int64, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, NewValidationError("status", fmt.Sprintf("must be one of: %s", statusNames()))
	}
	filter.normalize()
	return s.list(ctx, filter)
}

// ListVersions returns the version history of an asset in insertion order.
func (s *AssetService) ListVersions(ctx context.Context, caller *models.User, id uuid.UUID) ([]models.AssetVersion, error) {
	asset, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanRead(caller, asset); err != nil {
		return nil, err
	}

	var versions []models.AssetVersion
	if err := s.db.WithContext(ctx).
		Where("asset_id = ?", asset.ID).
		Order("created_at ASC").
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

func (s *AssetService) list(ctx context.Context, filter ListFilter) ([]*models.Asset, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Asset{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"(LOWER(title) LIKE ? OR LOWER(overview) LIKE ? OR LOWER(features) LIKE ? OR LOWER(prerequisites) LIKE ? OR LOWER(usage_guideline) LIKE ? OR LOWER(contact_point) LIKE ?)",
			like, like, like, like, like, like,
		)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	var assets []*models.Asset
	err := query.
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email", "role")
		}).
		Order("created_at DESC").
		Offset(filter.offset()).
		Limit(filter.Limit).
		Find(&assets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}

	return assets, total, nil
}

func (s *AssetService) find(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "find asset")
	}
	return &asset, nil
}

func translateNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func statusNames() string {
	names := make([]string, len(models.AssetStatuses))
	for i, st := range models.AssetStatuses {
		names[i] = string(st)
	}
	return strings.Join(names, " ")
}
