package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoQuestion records the asker's tenant at post time so the thread stays
// tenant-scoped even if the user later moves.
type VideoQuestion struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID      uuid.UUID  `gorm:"type:uuid;not null;index;column:video_id" json:"video_id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	TenantID     *uuid.UUID `gorm:"type:uuid;index;column:tenant_id" json:"tenant_id"`
	QuestionText string     `gorm:"not null;column:question_text" json:"question_text"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (VideoQuestion) TableName() string {
	return "video_questions"
}

func (q *VideoQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type VideoAnswer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID    uuid.UUID `gorm:"type:uuid;not null;index;column:question_id" json:"question_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;column:user_id" json:"user_id"`
	AnswerText    string    `gorm:"not null;column:answer_text" json:"answer_text"`
	IsAdminAnswer bool      `gorm:"not null;default:false;column:is_admin_answer" json:"is_admin_answer"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (VideoAnswer) TableName() string {
	return "video_answers"
}

func (a *VideoAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
