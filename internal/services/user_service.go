package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/assetcatalog/backend/internal/models"
)

type UpdateRoleInput struct {
	Role string `json:"role" binding:"required,oneof=ADMIN OWNER EMPLOYEE"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, translateNotFound(err, "get user")
	}
	return &user, nil
}

// GetAllUsers retrieves all users with pagination. Admin only.
func (s *UserService) GetAllUsers(ctx context.Context, caller *models.User, page, limit int) ([]*models.User, int64, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, 0, err
	}
	filter := ListFilter{Page: page, Limit: limit}
	filter.normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []*models.User
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(filter.offset()).
		Limit(filter.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// UpdateRole changes a user's role. Admin only.
func (s *UserService) UpdateRole(ctx context.Context, caller *models.User, userID uuid.UUID, in UpdateRoleInput) (*models.User, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, NewValidationError("role", "must be one of: ADMIN OWNER EMPLOYEE")
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return nil, fmt.Errorf("update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": caller.ID,
		"role":     role,
	}).Info("User role changed")

	return s.GetUserByID(ctx, userID)
}
