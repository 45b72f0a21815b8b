package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

func countUsers(t *testing.T, gdb *gorm.DB, scope func(*gorm.DB) *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(&types.User{}).Scopes(scope).Count(&n).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestTenantScopePerRole(t *testing.T) {
	gdb := testDB(t)

	var total int64
	if err := gdb.Model(&types.User{}).Count(&total).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}

	super := superRC(t, gdb)
	if got := countUsers(t, gdb, TenantScope(super, "tenant_id", "id")); got != total {
		t.Fatalf("super scope: want=%d got=%d", total, got)
	}

	tanaka := seededUser(t, gdb, "hotel_tanaka")
	var tenantTotal int64
	if err := gdb.Model(&types.User{}).Where("tenant_id = ?", *tanaka.TenantID).Count(&tenantTotal).Error; err != nil {
		t.Fatalf("count tenant users: %v", err)
	}
	if got := countUsers(t, gdb, TenantScope(rcFor(tanaka), "tenant_id", "id")); got != tenantTotal {
		t.Fatalf("company admin scope: want=%d got=%d", tenantTotal, got)
	}

	// A regular user collapses to their own rows when an owner column exists.
	suzuki := seededUser(t, gdb, "ryokan_suzuki")
	if got := countUsers(t, gdb, TenantScope(rcFor(suzuki), "tenant_id", "id")); got != 1 {
		t.Fatalf("user scope: want=1 got=%d", got)
	}

	if got := countUsers(t, gdb, TenantScope(nil, "tenant_id", "id")); got != 0 {
		t.Fatalf("nil context scope: want=0 got=%d", got)
	}
}

func TestTenantOnlyScopeSharesGlobalRows(t *testing.T) {
	gdb := testDB(t)
	video := createVideo(t, gdb, "スコープ検証動画", "scope-video", nil)

	tanaka := seededUser(t, gdb, "hotel_tanaka")
	global := &types.VideoQuestion{VideoID: video.ID, UserID: tanaka.ID, QuestionText: "全体質問"}
	if err := gdb.Create(global).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	tenantQ := &types.VideoQuestion{VideoID: video.ID, UserID: tanaka.ID, TenantID: tanaka.TenantID, QuestionText: "社内質問"}
	if err := gdb.Create(tenantQ).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}

	count := func(rc *ctxutil.RequestContext) int64 {
		var n int64
		if err := gdb.Model(&types.VideoQuestion{}).Scopes(TenantOnlyScope(rc, "tenant_id")).Count(&n).Error; err != nil {
			t.Fatalf("count questions: %v", err)
		}
		return n
	}

	if got := count(superRC(t, gdb)); got != 2 {
		t.Fatalf("super sees all: want=2 got=%d", got)
	}
	if got := count(rcFor(tanaka)); got != 2 {
		t.Fatalf("same tenant sees own plus global: want=2 got=%d", got)
	}
	suzuki := seededUser(t, gdb, "ryokan_suzuki")
	if got := count(rcFor(suzuki)); got != 1 {
		t.Fatalf("other tenant sees only global: want=1 got=%d", got)
	}
}
