package services

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/assetcatalog/backend/internal/config"
	"github.com/assetcatalog/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))
	return db
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.BcryptCost = 4
	cfg.JWTSecret = "test-secret"
	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPassword = "admin12345"
	cfg.AdminName = "Admin User"
	return cfg
}

func newTestUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:    email,
		Name:     "Test " + string(role),
		Password: "not-a-real-hash",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func validCreateInput() CreateAssetInput {
	return CreateAssetInput{
		Title:          "Payments SDK",
		Category:       "library",
		Overview:       "Client library for the internal payments API.",
		Features:       "Retries and idempotency keys",
		Prerequisites:  "Go 1.22",
		UsageGuideline: "Import the client and call Charge.",
		ContactPoint:   "owner@example.com",
		GithubURL:      "https://github.com/example/payments-sdk",
	}
}

func updateInputFrom(asset *models.Asset, version, changes string) UpdateAssetInput {
	return UpdateAssetInput{
		Title:          asset.Title,
		Category:       asset.Category,
		Overview:       asset.Overview,
		Features:       asset.Features,
		Prerequisites:  asset.Prerequisites,
		UsageGuideline: asset.UsageGuideline,
		ContactPoint:   asset.ContactPoint,
		GithubURL:      asset.GithubURL,
		Version:        version,
		Changes:        changes,
	}
}

type catalogFixture struct {
	db       *gorm.DB
	assets   *AssetService
	admin    *models.User
	owner    *models.User
	employee *models.User
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	db := setupTestDB(t)
	return &catalogFixture{
		db:       db,
		assets:   NewAssetService(db, NewLifecycleMachine(PermissiveTransitions())),
		admin:    newTestUser(t, db, "admin@example.com", models.RoleAdmin),
		owner:    newTestUser(t, db, "owner@example.com", models.RoleOwner),
		employee: newTestUser(t, db, "employee@example.com", models.RoleEmployee),
	}
}

func (f *catalogFixture) createAsset(t *testing.T, mutate func(*CreateAssetInput)) *models.Asset {
	t.Helper()
	in := validCreateInput()
	if mutate != nil {
		mutate(&in)
	}
	asset, err := f.assets.Create(context.Background(), f.owner, in)
	require.NoError(t, err)
	return asset
}

func (f *catalogFixture) publish(t *testing.T, asset *models.Asset) *models.Asset {
	t.Helper()
	published, err := f.assets.TransitionStatus(context.Background(), f.admin, asset.ID, models.AssetStatusPublished)
	require.NoError(t, err)
	return published
}

// fieldMessages flattens a validation error by field.
func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected a validation error, got %v", err)
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		out[f.Field] = f.Message
	}
	return out
}
