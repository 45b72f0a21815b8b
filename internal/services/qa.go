package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

const maxQATextRunes = 1000

type QuestionWithAnswers struct {
	*types.VideoQuestion
	Username string              `json:"username"`
	Answers  []*AnswerWithAuthor `json:"answers"`
}

type AnswerWithAuthor struct {
	*types.VideoAnswer
	Username string `json:"username"`
}

// MyQuestionsResult separates the caller's own threads from the rest of
// their tenant's; the tenant block never repeats the caller's own posts.
type MyQuestionsResult struct {
	Mine   []*QuestionWithAnswers `json:"my_questions"`
	Tenant []*QuestionWithAnswers `json:"tenant_questions"`
}

type QAService interface {
	ListQuestions(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID) ([]*QuestionWithAnswers, error)
	MyQuestions(ctx context.Context, rc *ctxutil.RequestContext) (*MyQuestionsResult, error)
	AskQuestion(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID, text string) (*types.VideoQuestion, error)
	UpdateQuestion(ctx context.Context, rc *ctxutil.RequestContext, questionID uuid.UUID, text string) (*types.VideoQuestion, error)
	DeleteQuestion(ctx context.Context, rc *ctxutil.RequestContext, questionID uuid.UUID) error
	AnswerQuestion(ctx context.Context, rc *ctxutil.RequestContext, questionID uuid.UUID, text string) (*types.VideoAnswer, error)
	UpdateAnswer(ctx context.Context, rc *ctxutil.RequestContext, answerID uuid.UUID, text string) (*types.VideoAnswer, error)
	DeleteAnswer(ctx context.Context, rc *ctxutil.RequestContext, answerID uuid.UUID) error
}

type qaService struct {
	questionRepo repos.QuestionRepo
	userRepo     repos.UserRepo
	catalog      CatalogService
	log          *logger.Logger
}

func NewQAService(questionRepo repos.QuestionRepo, userRepo repos.UserRepo, catalog CatalogService, baseLog *logger.Logger) QAService {
	serviceLog := baseLog.With("service", "QAService")
	return &qaService{
		questionRepo: questionRepo,
		userRepo:     userRepo,
		catalog:      catalog,
		log:          serviceLog,
	}
}

func validateQAText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", ErrValidation)
	}
	if len([]rune(text)) > maxQATextRunes {
		return "", fmt.Errorf("%w: text must be at most %d characters", ErrValidation, maxQATextRunes)
	}
	return text, nil
}

// ListQuestions returns the threads visible to the caller: their own tenant's
// questions plus tenant-less ones. Super admins see every thread.
func (s *qaService) ListQuestions(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID) ([]*QuestionWithAnswers, error) {
	if _, err := s.catalog.VisibleVideo(ctx, rc, videoID); err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByVideo(ctx, nil, videoID, TenantOnlyScope(rc, "tenant_id"))
	if err != nil {
		return nil, err
	}
	return s.threads(ctx, questions)
}

// threads attaches answers and author names to a set of questions.
func (s *qaService) threads(ctx context.Context, questions []*types.VideoQuestion) ([]*QuestionWithAnswers, error) {
	questionIDs := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
	}
	answers, err := s.questionRepo.ListAnswersForQuestions(ctx, nil, questionIDs)
	if err != nil {
		return nil, err
	}
	answersByQuestion := make(map[uuid.UUID][]*types.VideoAnswer)
	for _, a := range answers {
		answersByQuestion[a.QuestionID] = append(answersByQuestion[a.QuestionID], a)
	}

	names, err := s.usernames(ctx, questions, answers)
	if err != nil {
		return nil, err
	}

	out := make([]*QuestionWithAnswers, 0, len(questions))
	for _, q := range questions {
		node := &QuestionWithAnswers{
			VideoQuestion: q,
			Username:      names[q.UserID],
			Answers:       []*AnswerWithAuthor{},
		}
		for _, a := range answersByQuestion[q.ID] {
			node.Answers = append(node.Answers, &AnswerWithAuthor{
				VideoAnswer: a,
				Username:    names[a.UserID],
			})
		}
		out = append(out, node)
	}
	return out, nil
}

func (s *qaService) MyQuestions(ctx context.Context, rc *ctxutil.RequestContext) (*MyQuestionsResult, error) {
	own, err := s.questionRepo.ListByUser(ctx, nil, rc.UserID)
	if err != nil {
		return nil, err
	}
	mine, err := s.threads(ctx, own)
	if err != nil {
		return nil, err
	}

	tenant := []*QuestionWithAnswers{}
	if rc.TenantID != nil {
		others, err := s.questionRepo.ListByTenant(ctx, nil, *rc.TenantID, rc.UserID)
		if err != nil {
			return nil, err
		}
		tenant, err = s.threads(ctx, others)
		if err != nil {
			return nil, err
		}
	}
	return &MyQuestionsResult{Mine: mine, Tenant: tenant}, nil
}

func (s *qaService) usernames(ctx context.Context, questions []*types.VideoQuestion, answers []*types.VideoAnswer) (map[uuid.UUID]string, error) {
	idSet := map[uuid.UUID]struct{}{}
	for _, q := range questions {
		idSet[q.UserID] = struct{}{}
	}
	for _, a := range answers {
		idSet[a.UserID] = struct{}{}
	}
	names := make(map[uuid.UUID]string, len(idSet))
	for id := range idSet {
		user, err := s.userRepo.GetByID(ctx, nil, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			names[id] = "deleted user"
			continue
		}
		if err != nil {
			return nil, err
		}
		names[id] = user.Username
	}
	return names, nil
}

func (s *qaService) AskQuestion(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID, text string) (*types.VideoQuestion, error) {
	text, err := validateQAText(text)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.VisibleVideo(ctx, rc, videoID); err != nil {
		return nil, err
	}
	question := &types.VideoQuestion{
		VideoID:      videoID,
		UserID:       rc.UserID,
		TenantID:     rc.TenantID,
		QuestionText: text,
	}
	if err := s.questionRepo.CreateQuestion(ctx, nil, question); err != nil {
		return nil, err
	}
	return question, nil
}

// canModerate reports whether the caller may edit or delete someone else's
// post: super admins anywhere, company admins inside their own tenant.
func canModerate(rc *ctxutil.RequestContext, tenantID *uuid.UUID) bool {
	if rc.IsSuperAdmin() {
		return true
	}
	return rc.IsCompanyAdmin() && rc.TenantID != nil && tenantID != nil && *rc.TenantID == *tenantID
}

func (s *qaService) UpdateQuestion(ctx context.Context, rc *ctxutil.RequestContext, questionID uuid.UUID, text string) (*types.VideoQuestion, error) {
	text, err := validateQAText(text)
	if err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetQuestion(ctx, nil, questionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: question", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if question.UserID != rc.UserID {
		return nil, fmt.Errorf("%w: only the author can edit a question", ErrForbidden)
	}
	updates := map[string]interface{}{
		"question_text": text,
		"updated_at":    time.Now().UTC(),
	}
	if err := s.questionRepo.UpdateQuestion(ctx, nil, questionID, updates); err != nil {
		return nil, err
	}
	return s.questionRepo.GetQuestion(ctx, nil, questionID)
}

func (s *qaService) DeleteQuestion(ctx context.Context, rc *ctxutil.RequestContext, questionID uuid.UUID) error {
	question, err := s.questionRepo.GetQuestion(ctx, nil, questionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: question", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if question.UserID != rc.UserID && !canModerate(rc, question.TenantID) {
		return fmt.Errorf("%w: not allowed to delete this question", ErrForbidden)
	}
	return s.questionRepo.DeleteQuestion(ctx, nil, questionID)
}

func (s *qaService) AnswerQuestion(ctx context.Context, rc *ctxutil.RequestContext, questionID uuid.UUID, text string) (*types.VideoAnswer, error) {
	text, err := validateQAText(text)
	if err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetQuestion(ctx, nil, questionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: question", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.VisibleVideo(ctx, rc, question.VideoID); err != nil {
		return nil, err
	}
	// Cross-tenant answering is not allowed for regular users.
	if !rc.IsSuperAdmin() && question.TenantID != nil &&
		(rc.TenantID == nil || *rc.TenantID != *question.TenantID) {
		return nil, fmt.Errorf("%w: question belongs to another tenant", ErrForbidden)
	}

	answer := &types.VideoAnswer{
		QuestionID:    questionID,
		UserID:        rc.UserID,
		AnswerText:    text,
		IsAdminAnswer: rc.IsManager(),
	}
	if err := s.questionRepo.CreateAnswer(ctx, nil, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *qaService) UpdateAnswer(ctx context.Context, rc *ctxutil.RequestContext, answerID uuid.UUID, text string) (*types.VideoAnswer, error) {
	text, err := validateQAText(text)
	if err != nil {
		return nil, err
	}
	answer, err := s.questionRepo.GetAnswer(ctx, nil, answerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: answer", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if answer.UserID != rc.UserID {
		return nil, fmt.Errorf("%w: only the author can edit an answer", ErrForbidden)
	}
	updates := map[string]interface{}{
		"answer_text": text,
		"updated_at":  time.Now().UTC(),
	}
	if err := s.questionRepo.UpdateAnswer(ctx, nil, answerID, updates); err != nil {
		return nil, err
	}
	return s.questionRepo.GetAnswer(ctx, nil, answerID)
}

func (s *qaService) DeleteAnswer(ctx context.Context, rc *ctxutil.RequestContext, answerID uuid.UUID) error {
	answer, err := s.questionRepo.GetAnswer(ctx, nil, answerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: answer", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if answer.UserID == rc.UserID || rc.IsSuperAdmin() {
		return s.questionRepo.DeleteAnswer(ctx, nil, answerID)
	}
	question, err := s.questionRepo.GetQuestion(ctx, nil, answer.QuestionID)
	if err == nil && canModerate(rc, question.TenantID) {
		return s.questionRepo.DeleteAnswer(ctx, nil, answerID)
	}
	return fmt.Errorf("%w: not allowed to delete this answer", ErrForbidden)
}
