package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kenshuhub/kenshuhub-backend/internal/db"
	httpH "github.com/kenshuhub/kenshuhub-backend/internal/http/handlers"
	httpMW "github.com/kenshuhub/kenshuhub-backend/internal/http/middleware"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

// testRouter wires the login and catalog surface over a seeded throwaway
// SQLite database. Handlers not under test stay nil; the router skips them.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))

	log := logger.NewNop()
	svc, err := db.New(log)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := svc.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	gdb := svc.DB()

	userRepo := repos.NewUserRepo(gdb, log)
	categoryRepo := repos.NewCategoryRepo(gdb, log)
	auth := services.NewAuthService(gdb, userRepo, "router-test-secret", time.Hour, log)
	catalog := services.NewCatalogService(
		categoryRepo,
		repos.NewVideoRepo(gdb, log),
		repos.NewProgressRepo(gdb, log),
		services.NewAccessService(categoryRepo, log),
		log,
	)
	user := services.NewUserService(
		gdb,
		userRepo,
		repos.NewIndustryRepo(gdb, log),
		repos.NewTenantRepo(gdb, log),
		repos.NewDepartmentRepo(gdb, log),
		repos.NewProgressRepo(gdb, log),
		repos.NewChatHistoryRepo(gdb, log),
		log,
	)

	return NewRouter(RouterConfig{
		ServiceName:    "kenshuhub-test",
		Log:            log,
		AccessLogRepo:  repos.NewAccessLogRepo(gdb, log),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth),
		AuthHandler:    httpH.NewAuthHandler(auth, user),
		CatalogHandler: httpH.NewCatalogHandler(catalog),
	})
}

func login(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: want=200 got=%d body=%s", username, w.Code, w.Body.String())
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("login %s: decode: %v", username, err)
	}
	if result.Token == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return result.Token
}

func getCatalog(t *testing.T, r *gin.Engine, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code, w.Body.String()
}

func TestCatalogPerIndustryEndToEnd(t *testing.T) {
	r := testRouter(t)

	code, _ := getCatalog(t, r, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("catalog without token: want=401 got=%d", code)
	}

	hotelToken := login(t, r, "ryokan_suzuki", "user123")
	code, body := getCatalog(t, r, hotelToken)
	if code != http.StatusOK {
		t.Fatalf("catalog as hotel user: want=200 got=%d body=%s", code, body)
	}
	if !strings.Contains(body, "宿泊業向けAI活用") {
		t.Fatalf("hotel catalog missing industry tree: %s", body)
	}
	if strings.Contains(body, "小売業向けAI活用") {
		t.Fatalf("hotel catalog leaks retail tree: %s", body)
	}

	retailToken := login(t, r, "shop_sato", "user123")
	code, body = getCatalog(t, r, retailToken)
	if code != http.StatusOK {
		t.Fatalf("catalog as retail user: want=200 got=%d body=%s", code, body)
	}
	if !strings.Contains(body, "小売業向けAI活用") {
		t.Fatalf("retail catalog missing industry tree: %s", body)
	}
	if strings.Contains(body, "宿泊業向けAI活用") {
		t.Fatalf("retail catalog leaks hotel tree: %s", body)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r := testRouter(t)
	body, _ := json.Marshal(map[string]string{"username": "ryokan_suzuki", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: want=401 got=%d", w.Code)
	}
}
