package ctxutil

import (
	"context"

	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

// Role constants are re-exported so callers working at the auth boundary do
// not need to import the model package for a string comparison.
const (
	RoleUser         = types.RoleUser
	RoleCompanyAdmin = types.RoleCompanyAdmin
	RoleSuperAdmin   = types.RoleSuperAdmin
)

func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleCompanyAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// RequestContext carries the authenticated caller's identity and scope. It is
// built once at the auth boundary and passed explicitly to every service,
// never re-derived per endpoint.
type RequestContext struct {
	UserID     uuid.UUID
	Username   string
	Role       string
	TenantID   *uuid.UUID
	IndustryID *uuid.UUID
}

func (rc *RequestContext) IsSuperAdmin() bool {
	return rc != nil && rc.Role == RoleSuperAdmin
}

func (rc *RequestContext) IsCompanyAdmin() bool {
	return rc != nil && rc.Role == RoleCompanyAdmin
}

// IsManager reports whether the caller holds any admin role.
func (rc *RequestContext) IsManager() bool {
	return rc.IsSuperAdmin() || rc.IsCompanyAdmin()
}

type requestContextKey struct{}

func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestContextKey{}).(*RequestContext); ok {
		return rc
	}
	return nil
}
