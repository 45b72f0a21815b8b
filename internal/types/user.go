package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values form a strict hierarchy: user < company_admin < super_admin.
const (
	RoleUser         = "user"
	RoleCompanyAdmin = "company_admin"
	RoleSuperAdmin   = "super_admin"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string     `gorm:"not null;column:password_hash" json:"-"`
	IndustryID   *uuid.UUID `gorm:"type:uuid;column:industry_id" json:"industry_id"`
	TenantID     *uuid.UUID `gorm:"type:uuid;index;column:tenant_id" json:"tenant_id"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;column:department_id" json:"department_id"`
	CompanyName  string     `gorm:"column:company_name" json:"company_name"`
	Role         string     `gorm:"not null;default:user;column:role" json:"role"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
