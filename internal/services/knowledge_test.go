package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

func TestSplitMarkdownSections(t *testing.T) {
	doc := strings.Join([]string{
		"# Document Title",
		"intro text that belongs to no section",
		"",
		"## **接客対応**の基本",
		"お客様への挨拶は**第一印象**を決めます。",
		"",
		"### 電話応対",
		"電話は3コール以内に取ります。",
		"",
		"## 空のセクション",
		"",
		"## まとめ",
		"本日の研修内容を振り返ります。",
	}, "\n")

	sections := SplitMarkdownSections(doc)
	if len(sections) != 3 {
		t.Fatalf("sections: want=3 got=%d", len(sections))
	}
	if sections[0].Title != "接客対応の基本" {
		t.Fatalf("first title: want=%q got=%q", "接客対応の基本", sections[0].Title)
	}
	if !strings.Contains(sections[0].Content, "第一印象") {
		t.Fatalf("first content missing body: %q", sections[0].Content)
	}
	if sections[1].Title != "電話応対" {
		t.Fatalf("second title: want=%q got=%q", "電話応対", sections[1].Title)
	}
	if sections[2].Title != "まとめ" {
		t.Fatalf("third title: want=%q got=%q", "まとめ", sections[2].Title)
	}
}

func TestSplitMarkdownSectionsNoHeadings(t *testing.T) {
	if got := SplitMarkdownSections("just a paragraph\nwith two lines"); got != nil {
		t.Fatalf("want no sections, got %d", len(got))
	}
}

func TestExtractSectionKeywords(t *testing.T) {
	content := "お客様への**挨拶**は**第一印象**を決めます。**挨拶**を繰り返し、** **も無視。"
	got := ExtractSectionKeywords(content)
	if got != "挨拶,第一印象" {
		t.Fatalf("keywords: want=%q got=%q", "挨拶,第一印象", got)
	}
}

func TestExtractSectionKeywordsNoBold(t *testing.T) {
	if got := ExtractSectionKeywords("plain text only"); got != "" {
		t.Fatalf("keywords: want empty got=%q", got)
	}
}

func newKnowledgeService(gdb *gorm.DB) KnowledgeService {
	log := logger.NewNop()
	return NewKnowledgeService(gdb, repos.NewKnowledgeRepo(gdb, log), log)
}

func TestKnowledgeIngestAndList(t *testing.T) {
	gdb := testDB(t)
	svc := newKnowledgeService(gdb)
	ctx := context.Background()
	super := superRC(t, gdb)

	doc := strings.Join([]string{
		"# 接客マニュアル",
		"## チェックイン対応",
		"お客様を**笑顔**で迎えます。",
		"## クレーム対応",
		"まず**傾聴**します。",
	}, "\n")
	result, err := svc.Ingest(ctx, super, "sekkyaku.md", doc, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Sections != 2 {
		t.Fatalf("sections: want=2 got=%d", result.Sections)
	}

	entries, err := svc.List(ctx, super)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: want=2 got=%d", len(entries))
	}
	for _, e := range entries {
		if e.SourceFile != "sekkyaku.md" {
			t.Fatalf("source file: want sekkyaku.md, got %q", e.SourceFile)
		}
	}

	tanaka := rcFor(seededUser(t, gdb, "hotel_tanaka"))
	if _, err := svc.List(ctx, tanaka); !errors.Is(err, ErrForbidden) {
		t.Fatalf("List as company admin: want ErrForbidden, got %v", err)
	}
}
