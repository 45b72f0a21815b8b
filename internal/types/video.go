package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TranscriptionNone       = "none"
	TranscriptionPending    = "pending"
	TranscriptionProcessing = "processing"
	TranscriptionCompleted  = "completed"
	TranscriptionFailed     = "failed"
)

type Video struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title               string     `gorm:"not null;column:title" json:"title"`
	Slug                string     `gorm:"uniqueIndex;column:slug" json:"slug"`
	Description         string     `gorm:"column:description" json:"description"`
	Summary             string     `gorm:"column:summary" json:"summary"`
	Filename            string     `gorm:"not null;column:filename" json:"filename"`
	CategoryID          *uuid.UUID `gorm:"type:uuid;index;column:category_id" json:"category_id"`
	UploadedBy          *uuid.UUID `gorm:"type:uuid;column:uploaded_by" json:"uploaded_by"`
	TranscriptionStatus string     `gorm:"not null;default:none;column:transcription_status" json:"transcription_status"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Video) TableName() string {
	return "videos"
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VideoTranscript rows are the chat assistant's search corpus; they carry no
// user-facing surface of their own.
type VideoTranscript struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID        uuid.UUID `gorm:"type:uuid;not null;index;column:video_id" json:"video_id"`
	Content        string    `gorm:"not null;column:content" json:"content"`
	ContentType    string    `gorm:"not null;default:description;column:content_type" json:"content_type"`
	TimestampStart *float64  `gorm:"column:timestamp_start" json:"timestamp_start,omitempty"`
	TimestampEnd   *float64  `gorm:"column:timestamp_end" json:"timestamp_end,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (VideoTranscript) TableName() string {
	return "video_transcripts"
}

func (t *VideoTranscript) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
