package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type stubAuthService struct {
	byToken map[string]*ctxutil.RequestContext
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubAuthService) GenerateToken(user *types.User) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (s *stubAuthService) ContextFromToken(ctx context.Context, token string) (*ctxutil.RequestContext, error) {
	if rc, ok := s.byToken[token]; ok {
		return rc, nil
	}
	return nil, fmt.Errorf("%w: invalid or expired token", services.ErrUnauthorized)
}

func testRouter(rcByToken map[string]*ctxutil.RequestContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.NewNop(), &stubAuthService{byToken: rcByToken})

	r := gin.New()
	authed := r.Group("/", am.RequireAuth())
	authed.GET("/me", func(c *gin.Context) {
		rc := ctxutil.GetRequestContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"username": rc.Username})
	})
	authed.GET("/admin", am.RequireManager(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	authed.GET("/super", am.RequireSuperAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func get(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	user := &ctxutil.RequestContext{UserID: uuid.New(), Username: "suzuki", Role: ctxutil.RoleUser}
	r := testRouter(map[string]*ctxutil.RequestContext{"usertoken": user})

	if rec := get(r, "/me", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: want=401 got=%d", rec.Code)
	}
	if rec := get(r, "/me", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want=401 got=%d", rec.Code)
	}
	if rec := get(r, "/me", "usertoken"); rec.Code != http.StatusOK {
		t.Fatalf("good token: want=200 got=%d", rec.Code)
	}
}

func TestRequireAuthAcceptsQueryToken(t *testing.T) {
	user := &ctxutil.RequestContext{UserID: uuid.New(), Username: "suzuki", Role: ctxutil.RoleUser}
	r := testRouter(map[string]*ctxutil.RequestContext{"usertoken": user})

	req := httptest.NewRequest(http.MethodGet, "/me?token=usertoken", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("query token: want=200 got=%d", rec.Code)
	}
}

func TestRoleGates(t *testing.T) {
	tokens := map[string]*ctxutil.RequestContext{
		"user":  {UserID: uuid.New(), Role: ctxutil.RoleUser},
		"admin": {UserID: uuid.New(), Role: ctxutil.RoleCompanyAdmin},
		"super": {UserID: uuid.New(), Role: ctxutil.RoleSuperAdmin},
	}
	r := testRouter(tokens)

	cases := []struct {
		path, token string
		want        int
	}{
		{"/admin", "user", http.StatusForbidden},
		{"/admin", "admin", http.StatusOK},
		{"/admin", "super", http.StatusOK},
		{"/super", "user", http.StatusForbidden},
		{"/super", "admin", http.StatusForbidden},
		{"/super", "super", http.StatusOK},
	}
	for _, tc := range cases {
		if rec := get(r, tc.path, tc.token); rec.Code != tc.want {
			t.Fatalf("%s as %s: want=%d got=%d", tc.path, tc.token, tc.want, rec.Code)
		}
	}
}

func TestRequireAuthRejectsEmptySubject(t *testing.T) {
	r := testRouter(map[string]*ctxutil.RequestContext{"niluser": {UserID: uuid.Nil, Role: ctxutil.RoleUser}})

	if rec := get(r, "/me", "niluser"); rec.Code != http.StatusForbidden {
		t.Fatalf("nil subject: want=403 got=%d", rec.Code)
	}
}
