package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment is file metadata bound to one asset at creation time.
type Attachment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID   uuid.UUID `gorm:"type:uuid;not null;index" json:"asset_id"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Size      int64     `json:"size"`
	Type      string    `gorm:"size:120" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
