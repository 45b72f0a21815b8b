package services

import (
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
)

// TenantScope restricts a query to rows a caller may see based on role.
// Super admins see everything; company admins see their tenant; regular
// users see only rows they own. The column names vary per table, so callers
// pass them in.
func TenantScope(rc *ctxutil.RequestContext, tenantColumn, ownerColumn string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if rc == nil {
			return q.Where("1 = 0")
		}
		if rc.IsSuperAdmin() {
			return q
		}
		if rc.IsCompanyAdmin() && rc.TenantID != nil {
			return q.Where(tenantColumn+" = ?", *rc.TenantID)
		}
		if ownerColumn != "" {
			return q.Where(ownerColumn+" = ?", rc.UserID)
		}
		if rc.TenantID != nil {
			return q.Where(tenantColumn+" = ?", *rc.TenantID)
		}
		return q.Where(tenantColumn + " IS NULL")
	}
}

// TenantOnlyScope is TenantScope for tables where regular users share the
// tenant's rows rather than owning individual ones, like video questions.
func TenantOnlyScope(rc *ctxutil.RequestContext, tenantColumn string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if rc == nil {
			return q.Where("1 = 0")
		}
		if rc.IsSuperAdmin() {
			return q
		}
		if rc.TenantID != nil {
			return q.Where(tenantColumn+" = ? OR "+tenantColumn+" IS NULL", *rc.TenantID)
		}
		return q.Where(tenantColumn + " IS NULL")
	}
}
