package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

func newAnnouncementService(gdb *gorm.DB) AnnouncementService {
	log := logger.NewNop()
	return NewAnnouncementService(repos.NewAnnouncementRepo(gdb, log), log)
}

func TestAnnouncementVisibilityWindow(t *testing.T) {
	gdb := testDB(t)
	svc := newAnnouncementService(gdb)
	ctx := context.Background()
	super := superRC(t, gdb)
	hotelTenant := seededTenant(t, gdb, "グランドホテル東京")

	past := time.Now().Add(-2 * time.Hour)
	expired := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	inactive := false

	mustCreate := func(input AnnouncementInput) {
		t.Helper()
		if _, err := svc.Create(ctx, super, input); err != nil {
			t.Fatalf("create %q: %v", input.Title, err)
		}
	}
	mustCreate(AnnouncementInput{Title: "全社のお知らせ", Content: "本文"})
	mustCreate(AnnouncementInput{Title: "期限切れ", Content: "本文", PublishAt: &past, ExpiresAt: &expired})
	mustCreate(AnnouncementInput{Title: "予約済み", Content: "本文", PublishAt: &future})
	mustCreate(AnnouncementInput{Title: "停止中", Content: "本文", IsActive: &inactive})
	mustCreate(AnnouncementInput{Title: "ホテル向け", Content: "本文", TargetTenantID: &hotelTenant.ID})

	hotel := rcFor(seededUser(t, gdb, "hotel_tanaka"))
	visible, err := svc.Visible(ctx, hotel)
	if err != nil {
		t.Fatalf("Visible(hotel): %v", err)
	}
	titles := map[string]bool{}
	for _, a := range visible {
		titles[a.Title] = true
	}
	if !titles["全社のお知らせ"] || !titles["ホテル向け"] {
		t.Fatalf("hotel admin missing expected announcements: %v", titles)
	}
	for _, hidden := range []string{"期限切れ", "予約済み", "停止中"} {
		if titles[hidden] {
			t.Fatalf("%q should not be visible", hidden)
		}
	}

	retail := rcFor(seededUser(t, gdb, "shop_sato"))
	visible, err = svc.Visible(ctx, retail)
	if err != nil {
		t.Fatalf("Visible(retail): %v", err)
	}
	for _, a := range visible {
		if a.Title == "ホテル向け" {
			t.Fatal("targeted announcement leaked to another tenant")
		}
	}
}

func TestAnnouncementAuthoringScope(t *testing.T) {
	gdb := testDB(t)
	svc := newAnnouncementService(gdb)
	ctx := context.Background()
	admin := rcFor(seededUser(t, gdb, "hotel_tanaka"))
	otherTenant := seededTenant(t, gdb, "スーパーマート")

	// Global announcements are super_admin territory.
	_, err := svc.Create(ctx, admin, AnnouncementInput{Title: "全社", Content: "x"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("global by company admin: want ErrForbidden, got %v", err)
	}

	_, err = svc.Create(ctx, admin, AnnouncementInput{Title: "他社向け", Content: "x", TargetTenantID: &otherTenant.ID})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-tenant: want ErrForbidden, got %v", err)
	}

	created, err := svc.Create(ctx, admin, AnnouncementInput{Title: "自社向け", Content: "x", TargetTenantID: admin.TenantID})
	if err != nil {
		t.Fatalf("own tenant: %v", err)
	}
	if created.TargetTenantID == nil || *created.TargetTenantID != *admin.TenantID {
		t.Fatal("announcement should carry the target tenant")
	}
}

func TestAnnouncementValidation(t *testing.T) {
	gdb := testDB(t)
	svc := newAnnouncementService(gdb)
	ctx := context.Background()
	super := superRC(t, gdb)

	if _, err := svc.Create(ctx, super, AnnouncementInput{Title: " ", Content: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank title: want ErrValidation, got %v", err)
	}
	if _, err := svc.Create(ctx, super, AnnouncementInput{Title: "t", Content: "x", Type: "shout"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad type: want ErrValidation, got %v", err)
	}

	publish := time.Now().Add(time.Hour)
	expires := time.Now()
	_, err := svc.Create(ctx, super, AnnouncementInput{Title: "t", Content: "x", PublishAt: &publish, ExpiresAt: &expires})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("window inversion: want ErrValidation, got %v", err)
	}
}

func TestAnnouncementEditScope(t *testing.T) {
	gdb := testDB(t)
	svc := newAnnouncementService(gdb)
	ctx := context.Background()
	super := superRC(t, gdb)
	admin := rcFor(seededUser(t, gdb, "hotel_tanaka"))

	global, err := svc.Create(ctx, super, AnnouncementInput{Title: "全社", Content: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, admin, global.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("company admin deleting global: want ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, super, global.ID); err != nil {
		t.Fatalf("super delete: %v", err)
	}
	if err := svc.Delete(ctx, super, global.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}
