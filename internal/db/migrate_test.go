package db

import (
	"path/filepath"
	"testing"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

func testService(t *testing.T) *Service {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "migrate.db"))
	svc, err := New(logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestMigrateIsIdempotent(t *testing.T) {
	svc := testService(t)

	if err := svc.Migrate(); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}

	var industries int64
	if err := svc.DB().Model(&types.Industry{}).Count(&industries).Error; err != nil {
		t.Fatalf("count industries: %v", err)
	}
	if industries != 6 {
		t.Fatalf("industries: want=6 got=%d", industries)
	}

	var version int
	row := svc.DB().Model(&SchemaMigration{}).Select("MAX(version)").Row()
	if err := row.Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}

	// Second run applies nothing and duplicates nothing.
	if err := svc.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if err := svc.DB().Model(&types.Industry{}).Count(&industries).Error; err != nil {
		t.Fatalf("recount industries: %v", err)
	}
	if industries != 6 {
		t.Fatalf("industries after rerun: want=6 got=%d", industries)
	}

	var rerunVersion int
	row = svc.DB().Model(&SchemaMigration{}).Select("MAX(version)").Row()
	if err := row.Scan(&rerunVersion); err != nil {
		t.Fatalf("reread version: %v", err)
	}
	if rerunVersion != version {
		t.Fatalf("version moved on rerun: %d -> %d", version, rerunVersion)
	}
}

func TestMigrateSeedsTenantAdmins(t *testing.T) {
	svc := testService(t)
	if err := svc.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	var tenants []types.Tenant
	if err := svc.DB().Find(&tenants).Error; err != nil {
		t.Fatalf("load tenants: %v", err)
	}
	if len(tenants) == 0 {
		t.Fatal("seed tenants missing")
	}
	for _, tenant := range tenants {
		var admins int64
		err := svc.DB().Model(&types.User{}).
			Where("tenant_id = ? AND role = ?", tenant.ID, types.RoleCompanyAdmin).
			Count(&admins).Error
		if err != nil {
			t.Fatalf("count admins for %s: %v", tenant.Name, err)
		}
		if admins == 0 {
			t.Fatalf("tenant %s has no company_admin", tenant.Name)
		}
	}
}

func TestMigrateBackfillsSlugs(t *testing.T) {
	svc := testService(t)
	if err := svc.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	var missing int64
	err := svc.DB().Model(&types.Category{}).
		Where("slug IS NULL OR slug = ''").
		Count(&missing).Error
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if missing != 0 {
		t.Fatalf("categories without slugs: %d", missing)
	}
}

func TestMigratePurgesThrowawayAccounts(t *testing.T) {
	svc := testService(t)
	if err := svc.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	throwaway := &types.User{Username: "test_tmp1", Email: "tmp1@example.com", PasswordHash: "x"}
	keeper := &types.User{Username: "testuser1", Email: "keeper@example.com", PasswordHash: "x"}
	for _, u := range []*types.User{throwaway, keeper} {
		if err := svc.DB().Create(u).Error; err != nil {
			t.Fatalf("create %s: %v", u.Username, err)
		}
	}

	// Roll the ledger back to just before the purge and replay it. The
	// replayed migrations past it are all idempotent.
	if err := svc.DB().Where("version >= ?", 11).Delete(&SchemaMigration{}).Error; err != nil {
		t.Fatalf("rewind migrations: %v", err)
	}
	if err := svc.Migrate(); err != nil {
		t.Fatalf("replay Migrate: %v", err)
	}

	var n int64
	if err := svc.DB().Model(&types.User{}).Where("username = ?", "test_tmp1").Count(&n).Error; err != nil {
		t.Fatalf("count throwaway: %v", err)
	}
	if n != 0 {
		t.Fatal("test_tmp1 should be purged")
	}
	if err := svc.DB().Model(&types.User{}).Where("username = ?", "testuser1").Count(&n).Error; err != nil {
		t.Fatalf("count keeper: %v", err)
	}
	if n != 1 {
		t.Fatal("testuser1 without the underscore must survive the purge")
	}
}
