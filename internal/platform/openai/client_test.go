package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("AI_API_KEY", "test-key")
	t.Setenv("AI_BASE_URL", server.URL)

	c, err := NewClient(logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestCompleteSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header: got %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  回答です  "}},
			},
		})
	})

	got, err := c.Complete(context.Background(), "system prompt", "user question")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "回答です" {
		t.Fatalf("content: want=%q got=%q", "回答です", got)
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("non-200 upstream should fail")
	}
}

func TestCompleteAPIErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit exceeded"},
		})
	})

	_, err := c.Complete(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("want the API error message, got %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("empty choices should fail")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("AI_API_KEY", "")
	if _, err := NewClient(logger.NewNop()); err == nil {
		t.Fatal("missing key should fail")
	}
}

func TestUnavailableClient(t *testing.T) {
	c := NewUnavailableClient()
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("unavailable client must error")
	}
}
