package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category nodes form a forest; access control may attach to any node. Two
// levels of nesting are used in practice but nothing enforces that.
type Category struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"not null;column:name" json:"name"`
	Slug         string     `gorm:"uniqueIndex;column:slug" json:"slug"`
	Description  string     `gorm:"column:description" json:"description"`
	Icon         string     `gorm:"column:icon" json:"icon"`
	Color        string     `gorm:"column:color" json:"color"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index;column:parent_id" json:"parent_id"`
	DisplayOrder int        `gorm:"not null;default:0;column:display_order" json:"display_order"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CategoryIndustryAccess is the sparse allow-list behind category visibility:
// no rows for a category means public, any rows mean exclusive to the listed
// industries.
type CategoryIndustryAccess struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_category_industry;column:category_id" json:"category_id"`
	IndustryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_category_industry;column:industry_id" json:"industry_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CategoryIndustryAccess) TableName() string {
	return "category_industry_access"
}

func (a *CategoryIndustryAccess) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
