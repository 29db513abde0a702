package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsageStatus string

const (
	UsageStatusApproved UsageStatus = "APPROVED"
)

// UsageHistory records one access request for an asset.
type UsageHistory struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"asset_id"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Status    UsageStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

func (UsageHistory) TableName() string {
	return "usage_histories"
}

func (u *UsageHistory) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = UsageStatusApproved
	}
	return nil
}
