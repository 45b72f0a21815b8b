package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

func newAuthService(gdb *gorm.DB, ttl time.Duration) AuthService {
	log := logger.NewNop()
	return NewAuthService(gdb, repos.NewUserRepo(gdb, log), "test-secret", ttl, log)
}

func TestLoginAndTokenRoundtrip(t *testing.T) {
	gdb := testDB(t)
	svc := newAuthService(gdb, time.Hour)
	ctx := context.Background()

	result, err := svc.Login(ctx, "hotel_tanaka", "user123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("login should return a token")
	}

	rc, err := svc.ContextFromToken(ctx, result.Token)
	if err != nil {
		t.Fatalf("ContextFromToken: %v", err)
	}
	if rc.UserID != result.User.ID {
		t.Fatalf("user id: want=%s got=%s", result.User.ID, rc.UserID)
	}
	if rc.Role != ctxutil.RoleCompanyAdmin {
		t.Fatalf("role: want=company_admin got=%q", rc.Role)
	}
	if rc.TenantID == nil || rc.IndustryID == nil {
		t.Fatalf("claims should carry tenant and industry: tenant=%v industry=%v", rc.TenantID, rc.IndustryID)
	}
	if *rc.TenantID != *result.User.TenantID {
		t.Fatalf("tenant: want=%s got=%s", result.User.TenantID, rc.TenantID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	gdb := testDB(t)
	svc := newAuthService(gdb, time.Hour)

	_, err := svc.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	gdb := testDB(t)
	svc := newAuthService(gdb, time.Hour)

	_, err := svc.Login(context.Background(), "nobody", "whatever")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestLoginMissingFields(t *testing.T) {
	gdb := testDB(t)
	svc := newAuthService(gdb, time.Hour)

	_, err := svc.Login(context.Background(), "  ", "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestContextFromExpiredToken(t *testing.T) {
	gdb := testDB(t)
	svc := newAuthService(gdb, -time.Minute)
	ctx := context.Background()

	result, err := svc.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.ContextFromToken(ctx, result.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for expired token, got %v", err)
	}
}

func TestContextFromGarbageToken(t *testing.T) {
	gdb := testDB(t)
	svc := newAuthService(gdb, time.Hour)

	if _, err := svc.ContextFromToken(context.Background(), "not.a.token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}
