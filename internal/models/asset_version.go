package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetVersion is an append-only snapshot of the version string an asset
// carried before it was changed.
type AssetVersion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID   uuid.UUID `gorm:"type:uuid;not null;index" json:"asset_id"`
	Version   string    `gorm:"size:64;not null" json:"version"`
	Changes   string    `gorm:"type:text" json:"changes"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (v *AssetVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
