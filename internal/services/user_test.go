package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

func newUserService(gdb *gorm.DB) UserService {
	log := logger.NewNop()
	return NewUserService(
		gdb,
		repos.NewUserRepo(gdb, log),
		repos.NewIndustryRepo(gdb, log),
		repos.NewTenantRepo(gdb, log),
		repos.NewDepartmentRepo(gdb, log),
		repos.NewProgressRepo(gdb, log),
		repos.NewChatHistoryRepo(gdb, log),
		log,
	)
}

func TestCreateUserValidation(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	ctx := context.Background()
	rc := superRC(t, gdb)

	cases := []struct {
		name  string
		input CreateUserInput
	}{
		{"empty username", CreateUserInput{Email: "a@b.co", Password: "longenough"}},
		{"bad email", CreateUserInput{Username: "new_user", Email: "not-an-email", Password: "longenough"}},
		{"short password", CreateUserInput{Username: "new_user", Email: "a@b.co", Password: "short"}},
		{"invalid role", CreateUserInput{Username: "new_user", Email: "a@b.co", Password: "longenough", Role: "owner"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, rc, tc.input); !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)

	_, err := svc.Create(context.Background(), superRC(t, gdb), CreateUserInput{
		Username: "admin",
		Email:    "other@example.com",
		Password: "longenough",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestCreateUserCompanyAdminRolePolicy(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	ctx := context.Background()
	admin := rcFor(seededUser(t, gdb, "hotel_tanaka"))
	otherTenant := seededTenant(t, gdb, "スーパーマート")

	for _, role := range []string{ctxutil.RoleCompanyAdmin, ctxutil.RoleSuperAdmin} {
		_, err := svc.Create(ctx, admin, CreateUserInput{
			Username: "escalated",
			Email:    "escalated@example.com",
			Password: "longenough",
			Role:     role,
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("role %s: want ErrForbidden, got %v", role, err)
		}
	}

	// A plain user lands in the admin's own tenant even when the request
	// names a different one.
	user, err := svc.Create(ctx, admin, CreateUserInput{
		Username: "hotel_newhire",
		Email:    "newhire@grandhotel.co.jp",
		Password: "longenough",
		TenantID: &otherTenant.ID,
	})
	if err != nil {
		t.Fatalf("create plain user: %v", err)
	}
	if user.TenantID == nil || *user.TenantID != *admin.TenantID {
		t.Fatalf("tenant pin: want=%v got=%v", admin.TenantID, user.TenantID)
	}
	if user.Role != ctxutil.RoleUser {
		t.Fatalf("role default: want=user got=%q", user.Role)
	}
}

func TestDeleteLastTenantAdmin(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	target := seededUser(t, gdb, "hotel_tanaka")

	err := svc.Delete(context.Background(), superRC(t, gdb), target.ID)
	if !errors.Is(err, ErrLastTenantAdmin) {
		t.Fatalf("want ErrLastTenantAdmin, got %v", err)
	}
}

func TestDeleteOwnAccountRejected(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	rc := superRC(t, gdb)

	err := svc.Delete(context.Background(), rc, rc.UserID)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestDemoteLastTenantAdminRejected(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	target := seededUser(t, gdb, "hotel_tanaka")
	role := ctxutil.RoleUser

	_, err := svc.Update(context.Background(), superRC(t, gdb), target.ID, UpdateUserInput{Role: &role})
	if !errors.Is(err, ErrLastTenantAdmin) {
		t.Fatalf("want ErrLastTenantAdmin, got %v", err)
	}
}

func TestRoleChangeRequiresSuperAdmin(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	admin := rcFor(seededUser(t, gdb, "hotel_tanaka"))

	// hotel_tanaka may manage this seeded user: same tenant.
	user, err := svc.Create(context.Background(), admin, CreateUserInput{
		Username: "hotel_staff",
		Email:    "staff@grandhotel.co.jp",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	role := ctxutil.RoleCompanyAdmin
	_, err = svc.Update(context.Background(), admin, user.ID, UpdateUserInput{Role: &role})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestImportCSVMixedRows(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)

	csvData := strings.Join([]string{
		"ユーザー名,メール,パスワード,会社名,ロール,業種,テナント,部署",
		"import_ok,ok@example.com,longenough,グランドホテル東京,user,宿泊,グランドホテル東京,フロント課",
		"import_short,short@example.com,tiny,,user,,,",
		"import_badind,badind@example.com,longenough,,user,存在しない業種,,",
		"admin,dup@example.com,longenough,,user,,,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), superRC(t, gdb), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("created: want=1 got=%d (errors: %v)", result.Created, result.Errors)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("errors: want=3 got=%d (%v)", len(result.Errors), result.Errors)
	}
	for _, e := range result.Errors {
		if !strings.HasPrefix(e, "line ") {
			t.Fatalf("error should name its line: %q", e)
		}
	}

	imported := seededUser(t, gdb, "import_ok")
	if imported.TenantID == nil || imported.DepartmentID == nil || imported.IndustryID == nil {
		t.Fatalf("imported user missing lookups: tenant=%v dept=%v industry=%v",
			imported.TenantID, imported.DepartmentID, imported.IndustryID)
	}
}

func TestImportCSVRequiresManager(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	rc := rcFor(seededUser(t, gdb, "ryokan_suzuki"))

	_, err := svc.ImportCSV(context.Background(), rc, strings.NewReader("ユーザー名\nx"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestExportCSV(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	admin := rcFor(seededUser(t, gdb, "hotel_tanaka"))

	data, err := svc.ExportCSV(context.Background(), admin)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("export should start with a UTF-8 BOM")
	}
	body := string(data)
	if !strings.Contains(body, "hotel_tanaka") {
		t.Fatal("export should include the tenant's own users")
	}
	if strings.Contains(body, "ryokan_suzuki") {
		t.Fatal("export leaked another tenant's user")
	}
	if strings.Contains(body, "user123") {
		t.Fatal("export must not contain passwords")
	}
}

// The export columns mirror the import format, so an exported file with
// passwords filled in loads straight back through ImportCSV.
func TestExportCSVRoundTripsThroughImport(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	ctx := context.Background()
	super := superRC(t, gdb)

	data, err := svc.ExportCSV(ctx, super)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}

	wantHeader := []string{"ユーザー名", "メール", "パスワード", "会社名", "ロール", "業種", "テナント", "部署"}
	if len(rows[0]) != len(wantHeader) {
		t.Fatalf("header columns: want=%d got=%v", len(wantHeader), rows[0])
	}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Fatalf("header column %d: want=%q got=%q", i, col, rows[0][i])
		}
	}

	var source []string
	for _, row := range rows[1:] {
		if row[0] == "hotel_tanaka" {
			source = row
		}
	}
	if source == nil {
		t.Fatalf("export missing hotel_tanaka: %v", rows)
	}
	if source[2] != "" {
		t.Fatalf("password column: want empty, got %q", source[2])
	}
	if source[7] != "フロント課" {
		t.Fatalf("department column: want フロント課, got %q", source[7])
	}

	reimport := append([]string(nil), source...)
	reimport[0] = "reimport_user"
	reimport[1] = "reimport@example.com"
	reimport[2] = "longenough"

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(rows[0])
	w.Write(reimport)
	w.Flush()

	result, err := svc.ImportCSV(ctx, super, &buf)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Created != 1 || len(result.Errors) != 0 {
		t.Fatalf("reimport: want created=1 no errors, got created=%d errors=%v", result.Created, result.Errors)
	}

	tanaka := seededUser(t, gdb, "hotel_tanaka")
	created := seededUser(t, gdb, "reimport_user")
	if created.TenantID == nil || *created.TenantID != *tanaka.TenantID {
		t.Fatalf("reimported tenant: want=%v got=%v", tanaka.TenantID, created.TenantID)
	}
	if created.IndustryID == nil || *created.IndustryID != *tanaka.IndustryID {
		t.Fatalf("reimported industry: want=%v got=%v", tanaka.IndustryID, created.IndustryID)
	}
	if created.DepartmentID == nil || *created.DepartmentID != *tanaka.DepartmentID {
		t.Fatalf("reimported department: want=%v got=%v", tanaka.DepartmentID, created.DepartmentID)
	}
	if created.Role != tanaka.Role {
		t.Fatalf("reimported role: want=%q got=%q", tanaka.Role, created.Role)
	}
}

func TestPasswordLengthCountsRunes(t *testing.T) {
	gdb := testDB(t)
	svc := newUserService(gdb)
	ctx := context.Background()
	super := superRC(t, gdb)

	// Seven Japanese characters exceed eight bytes but are still too short.
	_, err := svc.Create(ctx, super, CreateUserInput{
		Username: "rune_short",
		Email:    "rune_short@example.com",
		Password: "あいうえおかき",
		Role:     ctxutil.RoleUser,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("7-rune password: want ErrValidation, got %v", err)
	}

	user, err := svc.Create(ctx, super, CreateUserInput{
		Username: "rune_ok",
		Email:    "rune_ok@example.com",
		Password: "あいうえおかきく",
		Role:     ctxutil.RoleUser,
	})
	if err != nil {
		t.Fatalf("8-rune password: %v", err)
	}

	short := "ぱすわーどたん"
	if _, err := svc.Update(ctx, super, user.ID, UpdateUserInput{Password: &short}); !errors.Is(err, ErrValidation) {
		t.Fatalf("short password on update: want ErrValidation, got %v", err)
	}
}
