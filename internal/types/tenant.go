package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant is a customer organization: the unit of user and department
// ownership and of administrative scoping.
type Tenant struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string         `gorm:"not null;column:name" json:"name"`
	IndustryID *uuid.UUID     `gorm:"type:uuid;column:industry_id" json:"industry_id"`
	Logo       string         `gorm:"column:logo" json:"logo"`
	Settings   datatypes.JSON `gorm:"column:settings" json:"settings,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Department struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	Name               string     `gorm:"not null;column:name" json:"name"`
	ParentDepartmentID *uuid.UUID `gorm:"type:uuid;column:parent_department_id" json:"parent_department_id"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Department) TableName() string {
	return "departments"
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
