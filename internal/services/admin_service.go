package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/assetcatalog/backend/internal/config"
	"github.com/assetcatalog/backend/internal/models"
	"github.com/assetcatalog/backend/pkg/crypto"
)

// SeedPassword is the password of the demo owner and employee accounts.
const SeedPassword = "password123"

// SeedAssetTitle names the DRAFT asset created by Seed.
const SeedAssetTitle = "Seed Asset"

type AdminService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAdminService(db *gorm.DB, cfg *config.Config) *AdminService {
	return &AdminService{db: db, cfg: cfg}
}

// CreateDefaultAdmin creates the configured admin user if it doesn't exist.
func (s *AdminService) CreateDefaultAdmin(ctx context.Context) (*models.User, error) {
	return s.ensureUser(ctx, s.cfg.AdminEmail, s.cfg.AdminName, s.cfg.AdminPassword, models.RoleAdmin)
}

// Seed creates one user per role and a DRAFT asset owned by the owner.
// Running it twice leaves the data unchanged.
func (s *AdminService) Seed(ctx context.Context) error {
	if _, err := s.CreateDefaultAdmin(ctx); err != nil {
		return err
	}

	owner, err := s.ensureUser(ctx, "owner@example.com", "Olivia Owner", SeedPassword, models.RoleOwner)
	if err != nil {
		return err
	}
	if _, err := s.ensureUser(ctx, "employee@example.com", "Eli Employee", SeedPassword, models.RoleEmployee); err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Asset{}).
		Where("owner_id = ? AND title = ?", owner.ID, SeedAssetTitle).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check seed asset: %w", err)
	}
	if count > 0 {
		return nil
	}

	asset := &models.Asset{
		Title:          SeedAssetTitle,
		Category:       "library",
		Status:         models.AssetStatusDraft,
		Version:        models.InitialAssetVersion,
		Overview:       "A sample asset created by the seed command.",
		Features:       "Demonstrates the catalog workflow.",
		UsageGuideline: "Submit it for review, then publish it.",
		ContactPoint:   owner.Email,
		OwnerID:        owner.ID,
	}
	if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
		return fmt.Errorf("create seed asset: %w", err)
	}

	logrus.WithField("asset_id", asset.ID).Info("Seed data created")
	return nil
}

// StatusCounts returns the number of assets per status. Admin only.
func (s *AdminService) StatusCounts(ctx context.Context, caller *models.User) (map[models.AssetStatus]int64, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}

	var rows []struct {
		Status models.AssetStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Asset{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count assets by status: %w", err)
	}

	counts := make(map[models.AssetStatus]int64, len(models.AssetStatuses))
	for _, st := range models.AssetStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *AdminService) ensureUser(ctx context.Context, email, name, password string, role models.Role) (*models.User, error) {
	email = normalizeEmail(email)

	var existing models.User
	result := s.db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&existing)
	if result.Error != nil {
		return nil, fmt.Errorf("find user %s: %w", email, result.Error)
	}
	if result.RowsAffected > 0 {
		return &existing, nil
	}

	hashedPassword, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Name:     name,
		Password: hashedPassword,
		Role:     role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}

	logrus.WithFields(logrus.Fields{"email": email, "role": role}).Info("User created")
	return user, nil
}
