package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Industry is long-lived reference data used purely to gate content
// visibility; rows are rarely mutated after seeding.
type Industry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	NameEN      string    `gorm:"not null;column:name_en" json:"name_en"`
	Description string    `gorm:"column:description" json:"description"`
	Icon        string    `gorm:"column:icon" json:"icon"`
	Color       string    `gorm:"column:color" json:"color"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Industry) TableName() string {
	return "industries"
}

func (i *Industry) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
