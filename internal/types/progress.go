package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Progress is upserted on every playback tick; one row per (user, video),
// last write wins.
type Progress struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_video;column:user_id" json:"user_id"`
	VideoID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_video;column:video_id" json:"video_id"`
	ProgressPercent float64   `gorm:"not null;default:0;column:progress_percent" json:"progress_percent"`
	LastPosition    float64   `gorm:"not null;default:0;column:last_position" json:"last_position"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Progress) TableName() string {
	return "progress"
}

func (p *Progress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
