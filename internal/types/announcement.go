package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AnnouncementInfo        = "info"
	AnnouncementWarning     = "warning"
	AnnouncementMaintenance = "maintenance"
)

func IsValidAnnouncementType(t string) bool {
	switch t {
	case AnnouncementInfo, AnnouncementWarning, AnnouncementMaintenance:
		return true
	default:
		return false
	}
}

// Announcement visibility is evaluated at read time: active, inside the
// publish window, and either untargeted or targeted at the caller's tenant.
type Announcement struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID       uuid.UUID  `gorm:"type:uuid;not null;column:author_id" json:"author_id"`
	Title          string     `gorm:"not null;column:title" json:"title"`
	Content        string     `gorm:"not null;column:content" json:"content"`
	Type           string     `gorm:"not null;default:info;column:type" json:"type"`
	TargetTenantID *uuid.UUID `gorm:"type:uuid;index;column:target_tenant_id" json:"target_tenant_id"`
	IsActive       bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
	PublishAt      time.Time  `gorm:"not null;column:publish_at" json:"publish_at"`
	ExpiresAt      *time.Time `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Announcement) TableName() string {
	return "announcements"
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.PublishAt.IsZero() {
		a.PublishAt = time.Now()
	}
	return nil
}
