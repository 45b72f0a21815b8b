package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

var (
	mdHeading = regexp.MustCompile(`^#{2,3} (.+)$`)
	mdBold    = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

type KnowledgeSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type IngestResult struct {
	SourceFile string `json:"source_file"`
	Sections   int    `json:"sections"`
}

// KnowledgeService ingests markdown documents into the chat assistant's
// search corpus. Documents are split on h2/h3 headings, one row per section.
type KnowledgeService interface {
	Ingest(ctx context.Context, rc *ctxutil.RequestContext, sourceFile string, markdown string, industryID *uuid.UUID) (*IngestResult, error)
	List(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.ExternalKnowledge, error)
	Remove(ctx context.Context, rc *ctxutil.RequestContext, sourceFile string) error
}

type knowledgeService struct {
	db            *gorm.DB
	knowledgeRepo repos.KnowledgeRepo
	log           *logger.Logger
}

func NewKnowledgeService(db *gorm.DB, knowledgeRepo repos.KnowledgeRepo, baseLog *logger.Logger) KnowledgeService {
	serviceLog := baseLog.With("service", "KnowledgeService")
	return &knowledgeService{db: db, knowledgeRepo: knowledgeRepo, log: serviceLog}
}

// SplitMarkdownSections breaks a document at h2/h3 headings. Text before the
// first heading is dropped, matching how reference documents put only a title
// there. Bold markers are stripped from section titles.
func SplitMarkdownSections(markdown string) []KnowledgeSection {
	var sections []KnowledgeSection
	var title string
	var body []string

	flush := func() {
		if title == "" {
			return
		}
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			sections = append(sections, KnowledgeSection{Title: title, Content: content})
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		if m := mdHeading.FindStringSubmatch(line); m != nil {
			flush()
			title = strings.TrimSpace(mdBold.ReplaceAllString(m[1], "$1"))
			body = body[:0]
			continue
		}
		body = append(body, line)
	}
	flush()
	return sections
}

// ExtractSectionKeywords pulls the bold phrases out of a section; authors
// bold the terms a reader would search for.
func ExtractSectionKeywords(content string) string {
	matches := mdBold.FindAllStringSubmatch(content, -1)
	seen := map[string]struct{}{}
	var keywords []string
	for _, m := range matches {
		kw := strings.TrimSpace(m[1])
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	return strings.Join(keywords, ",")
}

func (s *knowledgeService) Ingest(ctx context.Context, rc *ctxutil.RequestContext, sourceFile string, markdown string, industryID *uuid.UUID) (*IngestResult, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	sourceFile = strings.TrimSpace(sourceFile)
	if sourceFile == "" {
		return nil, fmt.Errorf("%w: source_file is required", ErrValidation)
	}
	sections := SplitMarkdownSections(markdown)
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: document has no sections", ErrValidation)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, section := range sections {
			entry := &types.ExternalKnowledge{
				IndustryID: industryID,
				Title:      section.Title,
				Content:    section.Content,
				SourceFile: sourceFile,
				Section:    section.Title,
				Keywords:   ExtractSectionKeywords(section.Content),
			}
			if err := s.knowledgeRepo.Upsert(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Knowledge ingested", "source", sourceFile, "sections", len(sections))
	return &IngestResult{SourceFile: sourceFile, Sections: len(sections)}, nil
}

func (s *knowledgeService) List(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.ExternalKnowledge, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	entries, err := s.knowledgeRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*types.ExternalKnowledge{}
	}
	return entries, nil
}

func (s *knowledgeService) Remove(ctx context.Context, rc *ctxutil.RequestContext, sourceFile string) error {
	if !rc.IsSuperAdmin() {
		return fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	return s.knowledgeRepo.DeleteBySourceFile(ctx, nil, sourceFile)
}
