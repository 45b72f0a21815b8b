package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/openai"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

func TestExtractKeywordsEnglish(t *testing.T) {
	got := ExtractKeywords("How can I use AI for customer service?")
	want := map[string]bool{"customer": true, "service": true, "use": true, "ai": true}
	for _, kw := range got {
		if !want[kw] {
			t.Fatalf("unexpected keyword %q in %v", kw, got)
		}
		delete(want, kw)
	}
	if len(want) != 0 {
		t.Fatalf("missing keywords %v, got %v", want, got)
	}
}

func TestExtractKeywordsDropsStopwordsAndShortTokens(t *testing.T) {
	got := ExtractKeywords("the a I to of")
	if len(got) != 0 {
		t.Fatalf("want no keywords, got %v", got)
	}
}

func TestExtractKeywordsJapaneseSeparators(t *testing.T) {
	got := ExtractKeywords("接客研修について教えてください")
	found := false
	for _, kw := range got {
		if kw == "接客研修" {
			found = true
		}
	}
	if !found {
		t.Fatalf("want 接客研修 among keywords, got %v", got)
	}
}

func TestExtractKeywordsLongestFirstAndCapped(t *testing.T) {
	got := ExtractKeywords("alpha beta gamma delta epsilon zeta eta theta iota kappa lambda")
	if len(got) != maxKeywords {
		t.Fatalf("keyword cap: want=%d got=%d", maxKeywords, len(got))
	}
	for i := 1; i < len(got); i++ {
		if len([]rune(got[i-1])) < len([]rune(got[i])) {
			t.Fatalf("not sorted longest first: %v", got)
		}
	}
}

func TestExtractKeywordsDeduplicates(t *testing.T) {
	got := ExtractKeywords("pricing pricing PRICING")
	if len(got) != 1 || got[0] != "pricing" {
		t.Fatalf("dedupe: want=[pricing] got=%v", got)
	}
}

func newChatService(gdb *gorm.DB, ai openai.Client) ChatService {
	log := logger.NewNop()
	categoryRepo := repos.NewCategoryRepo(gdb, log)
	return NewChatService(
		repos.NewVideoRepo(gdb, log),
		repos.NewVideoTranscriptRepo(gdb, log),
		repos.NewUsecaseRepo(gdb, log),
		repos.NewKnowledgeRepo(gdb, log),
		repos.NewChatHistoryRepo(gdb, log),
		categoryRepo,
		NewAccessService(categoryRepo, log),
		ai,
		log,
	)
}

func newAIClient(t *testing.T, baseURL string) openai.Client {
	t.Helper()
	t.Setenv("AI_API_KEY", "test-key")
	t.Setenv("AI_BASE_URL", baseURL)
	client, err := openai.NewClient(logger.NewNop())
	if err != nil {
		t.Fatalf("new ai client: %v", err)
	}
	return client
}

func TestChatRecommendsByTitleKeyword(t *testing.T) {
	gdb := testDB(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"こちらの動画が参考になります。"}}]}`))
	}))
	defer upstream.Close()
	svc := newChatService(gdb, newAIClient(t, upstream.URL))
	ctx := context.Background()

	visible := createVideo(t, gdb, "reservation 管理入門", "chat-reservation-basics", nil)
	retail := seededCategory(t, gdb, "小売業向けAI活用")
	hidden := createVideo(t, gdb, "reservation 小売向け", "chat-reservation-retail", &retail.ID)

	suzuki := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	result, err := svc.Chat(ctx, suzuki, "How should I handle reservation requests?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !result.Success || result.Response == "" {
		t.Fatalf("chat result: want success with response, got %+v", result)
	}
	ids := map[string]bool{}
	for _, rec := range result.RecommendedVideos {
		ids[rec.ID.String()] = true
	}
	if !ids[visible.ID.String()] {
		t.Fatalf("recommendations missing %q: %v", visible.Title, result.RecommendedVideos)
	}
	// A matching video behind another industry's category stays hidden.
	if ids[hidden.ID.String()] {
		t.Fatalf("recommendations leak %q: %v", hidden.Title, result.RecommendedVideos)
	}
}

func TestChatSurfacesUpstreamFailure(t *testing.T) {
	gdb := testDB(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()
	svc := newChatService(gdb, newAIClient(t, upstream.URL))
	ctx := context.Background()

	video := createVideo(t, gdb, "reservation 障害時動画", "chat-upstream-failure", nil)
	suzuki := rcFor(seededUser(t, gdb, "ryokan_suzuki"))

	result, err := svc.Chat(ctx, suzuki, "Tell me about reservation workflows")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if result.Success || result.Error == "" {
		t.Fatalf("upstream failure: want degraded result, got %+v", result)
	}
	// Recommendations are built before the completion call, so they survive.
	found := false
	for _, rec := range result.RecommendedVideos {
		if rec.ID == video.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("degraded result lost recommendations: %+v", result.RecommendedVideos)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	gdb := testDB(t)
	svc := newChatService(gdb, nil)
	rc := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	if _, err := svc.Chat(context.Background(), rc, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty message: want ErrValidation, got %v", err)
	}
}
