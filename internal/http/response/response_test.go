package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondServiceError(c, err)

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec, envelope
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("%w: title is required", services.ErrValidation), http.StatusBadRequest, "invalid_request"},
		{"last tenant admin", fmt.Errorf("%w: cannot demote", services.ErrLastTenantAdmin), http.StatusBadRequest, "invalid_request"},
		{"unauthorized", fmt.Errorf("%w: bad credentials", services.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", fmt.Errorf("%w: admin access required", services.ErrForbidden), http.StatusForbidden, "forbidden"},
		{"not found", fmt.Errorf("%w: video", services.ErrNotFound), http.StatusNotFound, "not_found"},
		{"conflict", fmt.Errorf("%w: duplicate username", services.ErrConflict), http.StatusConflict, "conflict"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, envelope := respond(t, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d", tc.wantStatus, rec.Code)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("code: want=%q got=%q", tc.wantCode, envelope.Error.Code)
			}
			if envelope.Error.Message == "" {
				t.Fatal("message should carry the error text")
			}
		})
	}
}

func TestRespondServiceErrorSuppressesInternals(t *testing.T) {
	rec, envelope := respond(t, errors.New("pq: connection refused on 10.0.0.5"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	if envelope.Error.Code != "internal_error" {
		t.Fatalf("code: want=internal_error got=%q", envelope.Error.Code)
	}
	if strings.Contains(envelope.Error.Message, "10.0.0.5") {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}
