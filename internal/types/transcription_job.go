package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TranscriptionJobQueued    = "queued"
	TranscriptionJobRunning   = "running"
	TranscriptionJobCompleted = "completed"
	TranscriptionJobFailed    = "failed"
)

// TranscriptionJob backs the transcription status column with an explicit
// queue row. A running job must heartbeat; rows whose heartbeat goes stale
// become claimable again so a crashed worker cannot wedge a video at
// "processing".
type TranscriptionJob struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID     uuid.UUID  `gorm:"type:uuid;not null;index;column:video_id" json:"video_id"`
	Status      string     `gorm:"not null;default:queued;index;column:status" json:"status"`
	Attempts    int        `gorm:"not null;default:0;column:attempts" json:"attempts"`
	LastError   string     `gorm:"column:last_error" json:"last_error,omitempty"`
	LastErrorAt *time.Time `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	LockedAt    *time.Time `gorm:"column:locked_at" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TranscriptionJob) TableName() string {
	return "transcription_jobs"
}

func (j *TranscriptionJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
