package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessLog is the per-request audit row written by the request-log
// middleware; failures to write it never fail the request.
type AccessLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index;column:user_id" json:"user_id"`
	TenantID   *uuid.UUID `gorm:"type:uuid;index;column:tenant_id" json:"tenant_id"`
	Path       string     `gorm:"not null;column:path" json:"path"`
	Method     string     `gorm:"not null;default:GET;column:method" json:"method"`
	StatusCode int        `gorm:"column:status_code" json:"status_code"`
	UserAgent  string     `gorm:"column:user_agent" json:"user_agent"`
	IPAddress  string     `gorm:"column:ip_address" json:"ip_address"`
	Referrer   string     `gorm:"column:referrer" json:"referrer"`
	DurationMS int64      `gorm:"column:duration_ms" json:"duration_ms"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AccessLog) TableName() string {
	return "access_logs"
}

func (l *AccessLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
