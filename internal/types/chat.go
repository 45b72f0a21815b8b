package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IndustryUsecase is a canned example prompt per industry, surfaced as a chat
// suggestion and searched as part of the assistant corpus.
type IndustryUsecase struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IndustryID    uuid.UUID `gorm:"type:uuid;not null;index;column:industry_id" json:"industry_id"`
	Title         string    `gorm:"not null;column:title" json:"title"`
	Description   string    `gorm:"not null;column:description" json:"description"`
	Keywords      string    `gorm:"column:keywords" json:"keywords"`
	ExamplePrompt string    `gorm:"column:example_prompt" json:"example_prompt"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (IndustryUsecase) TableName() string {
	return "industry_usecases"
}

func (u *IndustryUsecase) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type ChatHistory struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Message             string         `gorm:"not null;column:message" json:"message"`
	Response            string         `gorm:"not null;column:response" json:"response"`
	RecommendedVideoIDs datatypes.JSON `gorm:"column:recommended_video_ids" json:"recommended_video_ids"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (ChatHistory) TableName() string {
	return "chat_history"
}

func (h *ChatHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// ExternalKnowledge entries are ingested from markdown documents and searched
// alongside transcripts when answering chat questions. A nil industry means
// the entry applies to every industry.
type ExternalKnowledge struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	IndustryID *uuid.UUID `gorm:"type:uuid;index;column:industry_id" json:"industry_id"`
	Title      string     `gorm:"not null;column:title" json:"title"`
	Content    string     `gorm:"not null;column:content" json:"content"`
	SourceFile string     `gorm:"column:source_file" json:"source_file"`
	Section    string     `gorm:"column:section" json:"section"`
	Keywords   string     `gorm:"column:keywords" json:"keywords"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ExternalKnowledge) TableName() string {
	return "external_knowledge"
}

func (k *ExternalKnowledge) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
