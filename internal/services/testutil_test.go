package services

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/db"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

// testDB opens a throwaway SQLite database with the full migration and seed
// data applied. Seeded accounts (admin, hotel_tanaka, ...) double as fixtures.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	svc, err := db.New(logger.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := svc.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return svc.DB()
}

func seededUser(t *testing.T, gdb *gorm.DB, username string) *types.User {
	t.Helper()
	var user types.User
	if err := gdb.Where("username = ?", username).First(&user).Error; err != nil {
		t.Fatalf("seeded user %q: %v", username, err)
	}
	return &user
}

func seededIndustry(t *testing.T, gdb *gorm.DB, name string) *types.Industry {
	t.Helper()
	var industry types.Industry
	if err := gdb.Where("name = ?", name).First(&industry).Error; err != nil {
		t.Fatalf("seeded industry %q: %v", name, err)
	}
	return &industry
}

func seededTenant(t *testing.T, gdb *gorm.DB, name string) *types.Tenant {
	t.Helper()
	var tenant types.Tenant
	if err := gdb.Where("name = ?", name).First(&tenant).Error; err != nil {
		t.Fatalf("seeded tenant %q: %v", name, err)
	}
	return &tenant
}

func seededCategory(t *testing.T, gdb *gorm.DB, name string) *types.Category {
	t.Helper()
	var category types.Category
	if err := gdb.Where("name = ?", name).First(&category).Error; err != nil {
		t.Fatalf("seeded category %q: %v", name, err)
	}
	return &category
}

func rcFor(u *types.User) *ctxutil.RequestContext {
	return &ctxutil.RequestContext{
		UserID:     u.ID,
		Username:   u.Username,
		Role:       u.Role,
		TenantID:   u.TenantID,
		IndustryID: u.IndustryID,
	}
}

func superRC(t *testing.T, gdb *gorm.DB) *ctxutil.RequestContext {
	t.Helper()
	return rcFor(seededUser(t, gdb, "admin"))
}

func createVideo(t *testing.T, gdb *gorm.DB, title, slug string, categoryID *uuid.UUID) *types.Video {
	t.Helper()
	video := &types.Video{
		Title:               title,
		Slug:                slug,
		Filename:            slug + ".mp4",
		CategoryID:          categoryID,
		TranscriptionStatus: types.TranscriptionNone,
	}
	if err := gdb.Create(video).Error; err != nil {
		t.Fatalf("create video %q: %v", title, err)
	}
	return video
}
