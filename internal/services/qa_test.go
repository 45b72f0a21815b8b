package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

func newQAService(gdb *gorm.DB) QAService {
	log := logger.NewNop()
	return NewQAService(
		repos.NewQuestionRepo(gdb, log),
		repos.NewUserRepo(gdb, log),
		newCatalogService(gdb),
		log,
	)
}

func TestAskAndAnswerQuestion(t *testing.T) {
	gdb := testDB(t)
	svc := newQAService(gdb)
	ctx := context.Background()
	video := createVideo(t, gdb, "Q&Aテスト", "qa-flow", nil)

	asker := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	question, err := svc.AskQuestion(ctx, asker, video.ID, "この操作の手順を教えてください")
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}
	if question.TenantID == nil || *question.TenantID != *asker.TenantID {
		t.Fatal("question should inherit the asker's tenant")
	}

	super := superRC(t, gdb)
	answer, err := svc.AnswerQuestion(ctx, super, question.ID, "設定画面から変更できます")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if !answer.IsAdminAnswer {
		t.Fatal("admin answers should be flagged")
	}

	threads, err := svc.ListQuestions(ctx, asker, video.ID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(threads) != 1 || len(threads[0].Answers) != 1 {
		t.Fatalf("thread shape: got %d questions", len(threads))
	}
	if threads[0].Username != "ryokan_suzuki" {
		t.Fatalf("asker name: got %q", threads[0].Username)
	}
}

func TestQuestionTenantIsolation(t *testing.T) {
	gdb := testDB(t)
	svc := newQAService(gdb)
	ctx := context.Background()
	video := createVideo(t, gdb, "分離テスト", "qa-isolation", nil)

	hotel := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	retail := rcFor(seededUser(t, gdb, "shop_sato"))

	question, err := svc.AskQuestion(ctx, hotel, video.ID, "ホテル側の質問")
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}

	// Another tenant neither sees nor answers the thread.
	threads, err := svc.ListQuestions(ctx, retail, video.ID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(threads) != 0 {
		t.Fatalf("cross-tenant visibility: want 0 threads, got %d", len(threads))
	}
	if _, err := svc.AnswerQuestion(ctx, retail, question.ID, "回答"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-tenant answer: want ErrForbidden, got %v", err)
	}
}

func TestQuestionEditOwnership(t *testing.T) {
	gdb := testDB(t)
	svc := newQAService(gdb)
	ctx := context.Background()
	video := createVideo(t, gdb, "編集テスト", "qa-edit", nil)

	asker := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	question, err := svc.AskQuestion(ctx, asker, video.ID, "元の質問")
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}

	// Even a super admin cannot rewrite someone else's words.
	if _, err := svc.UpdateQuestion(ctx, superRC(t, gdb), question.ID, "改変"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-author edit: want ErrForbidden, got %v", err)
	}

	updated, err := svc.UpdateQuestion(ctx, asker, question.ID, "修正した質問")
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if updated.QuestionText != "修正した質問" {
		t.Fatalf("text: got %q", updated.QuestionText)
	}
}

func TestQuestionModeration(t *testing.T) {
	gdb := testDB(t)
	svc := newQAService(gdb)
	ctx := context.Background()
	video := createVideo(t, gdb, "削除テスト", "qa-moderation", nil)

	// hotel_tanaka administers グランドホテル東京; suzuki belongs to 湯元旅館.
	suzuki := rcFor(seededUser(t, gdb, "ryokan_suzuki"))
	tanaka := rcFor(seededUser(t, gdb, "hotel_tanaka"))

	question, err := svc.AskQuestion(ctx, suzuki, video.ID, "削除される質問")
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}
	if err := svc.DeleteQuestion(ctx, tanaka, question.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign-tenant admin delete: want ErrForbidden, got %v", err)
	}
	if err := svc.DeleteQuestion(ctx, superRC(t, gdb), question.ID); err != nil {
		t.Fatalf("super delete: %v", err)
	}
}

func TestQATextValidation(t *testing.T) {
	gdb := testDB(t)
	svc := newQAService(gdb)
	ctx := context.Background()
	video := createVideo(t, gdb, "検証テスト", "qa-validation", nil)
	rc := rcFor(seededUser(t, gdb, "ryokan_suzuki"))

	if _, err := svc.AskQuestion(ctx, rc, video.ID, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank text: want ErrValidation, got %v", err)
	}
	if _, err := svc.AskQuestion(ctx, rc, video.ID, strings.Repeat("あ", maxQATextRunes+1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("oversized text: want ErrValidation, got %v", err)
	}
}

func TestMyQuestions(t *testing.T) {
	gdb := testDB(t)
	svc := newQAService(gdb)
	ctx := context.Background()
	video := createVideo(t, gdb, "質問一覧動画", "my-questions-video", nil)

	tanaka := seededUser(t, gdb, "hotel_tanaka")
	colleague := &types.User{
		Username:     "hotel_colleague",
		Email:        "colleague@grandhotel.co.jp",
		PasswordHash: "x",
		TenantID:     tanaka.TenantID,
		IndustryID:   tanaka.IndustryID,
		Role:         types.RoleUser,
	}
	if err := gdb.Create(colleague).Error; err != nil {
		t.Fatalf("create colleague: %v", err)
	}

	own, err := svc.AskQuestion(ctx, rcFor(tanaka), video.ID, "自分の質問")
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}
	theirs, err := svc.AskQuestion(ctx, rcFor(colleague), video.ID, "同僚の質問")
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}

	result, err := svc.MyQuestions(ctx, rcFor(tanaka))
	if err != nil {
		t.Fatalf("MyQuestions: %v", err)
	}
	if len(result.Mine) != 1 || result.Mine[0].ID != own.ID {
		t.Fatalf("mine: want only %s, got %+v", own.ID, result.Mine)
	}
	// The tenant feed excludes the caller's own posts.
	if len(result.Tenant) != 1 || result.Tenant[0].ID != theirs.ID {
		t.Fatalf("tenant feed: want only %s, got %+v", theirs.ID, result.Tenant)
	}

	sato := seededUser(t, gdb, "shop_sato")
	empty, err := svc.MyQuestions(ctx, rcFor(sato))
	if err != nil {
		t.Fatalf("MyQuestions as outsider: %v", err)
	}
	if len(empty.Mine) != 0 || len(empty.Tenant) != 0 {
		t.Fatalf("outsider: want empty feeds, got %+v", empty)
	}
}
