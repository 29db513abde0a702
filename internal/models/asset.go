package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetStatus is the lifecycle state of a catalog asset.
type AssetStatus string

const (
	AssetStatusDraft     AssetStatus = "DRAFT"
	AssetStatusPending   AssetStatus = "PENDING"
	AssetStatusPublished AssetStatus = "PUBLISHED"
	AssetStatusRejected  AssetStatus = "REJECTED"
)

// AssetStatuses lists every valid status.
var AssetStatuses = []AssetStatus{
	AssetStatusDraft,
	AssetStatusPending,
	AssetStatusPublished,
	AssetStatusRejected,
}

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusDraft, AssetStatusPending, AssetStatusPublished, AssetStatusRejected:
		return true
	}
	return false
}

// ParseAssetStatus accepts a status name in any case.
func ParseAssetStatus(s string) (AssetStatus, error) {
	st := AssetStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown asset status %q", s)
	}
	return st, nil
}

// InitialAssetVersion is assigned to every newly created asset.
const InitialAssetVersion = "1.0.0"

// Asset is a cataloged internal software artifact.
type Asset struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string      `gorm:"size:255;not null" json:"title"`
	Category string      `gorm:"size:64;not null;index" json:"category"`
	Status   AssetStatus `gorm:"type:varchar(16);not null;default:DRAFT;index" json:"status"`
	Version  string      `gorm:"size:64;not null" json:"version"`

	// Description sections, stored separately
	Overview       string `gorm:"type:text;not null" json:"overview"`
	Features       string `gorm:"type:text" json:"features"`
	Prerequisites  string `gorm:"type:text" json:"prerequisites"`
	UsageGuideline string `gorm:"type:text" json:"usage_guideline"`
	ContactPoint   string `gorm:"size:255" json:"contact_point"`

	GithubURL string `gorm:"size:512" json:"github_url,omitempty"`

	// Attestations
	QAReviewed     bool   `gorm:"default:false" json:"qa_reviewed"`
	QAReviewURL    string `gorm:"size:512" json:"qa_review_url,omitempty"`
	LegalReviewed  bool   `gorm:"default:false" json:"legal_reviewed"`
	LegalReviewURL string `gorm:"size:512" json:"legal_review_url,omitempty"`

	UsageCount int `gorm:"not null;default:0" json:"usage_count"`
	Views      int `gorm:"not null;default:0" json:"views"`
	Likes      int `gorm:"not null;default:0" json:"likes"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Versions    []AssetVersion `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"versions,omitempty"`
	Attachments []Attachment   `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	Reviews     []Review       `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AssetStatusDraft
	}
	if a.Version == "" {
		a.Version = InitialAssetVersion
	}
	return nil
}

// IsOwnedBy reports whether userID owns the asset.
func (a *Asset) IsOwnedBy(userID uuid.UUID) bool {
	return a.OwnerID != uuid.Nil && a.OwnerID == userID
}

// Description renders the sections as the single markdown document
// shown on the detail page.
func (a *Asset) Description() string {
	var b strings.Builder
	b.WriteString(a.Overview)
	b.WriteString("\n\n## Features\n")
	b.WriteString(a.Features)
	b.WriteString("\n\n## Prerequisites\n")
	b.WriteString(a.Prerequisites)
	b.WriteString("\n\n## Usage\n")
	b.WriteString(a.UsageGuideline)
	b.WriteString("\n\n## Contact\n")
	b.WriteString(a.ContactPoint)
	return b.String()
}
