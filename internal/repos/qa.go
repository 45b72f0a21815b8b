package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type QuestionRepo interface {
	CreateQuestion(ctx context.Context, tx *gorm.DB, question *types.VideoQuestion) error
	GetQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VideoQuestion, error)
	ListByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID, scope func(*gorm.DB) *gorm.DB) ([]*types.VideoQuestion, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.VideoQuestion, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, excludeUserID uuid.UUID) ([]*types.VideoQuestion, error)
	UpdateQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	Counts(ctx context.Context, tx *gorm.DB, since *time.Time, tenantID *uuid.UUID) (QACounts, error)
	CountsByTenant(ctx context.Context, tx *gorm.DB, since *time.Time) ([]TenantQACount, error)

	CreateAnswer(ctx context.Context, tx *gorm.DB, answer *types.VideoAnswer) error
	GetAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VideoAnswer, error)
	ListAnswers(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) ([]*types.VideoAnswer, error)
	ListAnswersForQuestions(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.VideoAnswer, error)
	UpdateAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

// QACounts is a population-wide rollup of the question boards.
type QACounts struct {
	Questions int64
	Answers   int64
	Answered  int64
}

type TenantQACount struct {
	TenantID  uuid.UUID `gorm:"column:tenant_id"`
	Questions int64     `gorm:"column:questions"`
	Answered  int64     `gorm:"column:answered"`
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) CreateQuestion(ctx context.Context, tx *gorm.DB, question *types.VideoQuestion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(question).Error
}

func (r *questionRepo) GetQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VideoQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var question types.VideoQuestion
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) ListByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID, scope func(*gorm.DB) *gorm.DB) ([]*types.VideoQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.VideoQuestion{}).
		Where("video_id = ?", videoID)
	if scope != nil {
		q = scope(q)
	}
	var results []*types.VideoQuestion
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.VideoQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.VideoQuestion
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, excludeUserID uuid.UUID) ([]*types.VideoQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if excludeUserID != uuid.Nil {
		q = q.Where("user_id <> ?", excludeUserID)
	}
	var results []*types.VideoQuestion
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) UpdateQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.VideoQuestion{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteQuestion removes the question and every answer attached to it.
func (r *questionRepo) DeleteQuestion(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("question_id = ?", id).Delete(&types.VideoAnswer{}).Error; err != nil {
			return err
		}
		return txx.Where("id = ?", id).Delete(&types.VideoQuestion{}).Error
	})
}

func (r *questionRepo) CreateAnswer(ctx context.Context, tx *gorm.DB, answer *types.VideoAnswer) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(answer).Error
}

func (r *questionRepo) GetAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VideoAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var answer types.VideoAnswer
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *questionRepo) ListAnswers(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) ([]*types.VideoAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.VideoAnswer
	if err := transaction.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) ListAnswersForQuestions(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.VideoAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.VideoAnswer
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("question_id IN ?", questionIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) UpdateAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.VideoAnswer{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *questionRepo) DeleteAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.VideoAnswer{}).Error
}

func (r *questionRepo) Counts(ctx context.Context, tx *gorm.DB, since *time.Time, tenantID *uuid.UUID) (QACounts, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	questions := transaction.WithContext(ctx).Model(&types.VideoQuestion{})
	if since != nil {
		questions = questions.Where("created_at >= ?", *since)
	}
	if tenantID != nil {
		questions = questions.Where("tenant_id = ?", *tenantID)
	}
	var counts QACounts
	if err := questions.Count(&counts.Questions).Error; err != nil {
		return counts, err
	}

	// Answer counts follow the question's tenant and window, not the
	// answer's own timestamps.
	answers := transaction.WithContext(ctx).
		Model(&types.VideoAnswer{}).
		Joins("JOIN video_questions ON video_questions.id = video_answers.question_id")
	if since != nil {
		answers = answers.Where("video_questions.created_at >= ?", *since)
	}
	if tenantID != nil {
		answers = answers.Where("video_questions.tenant_id = ?", *tenantID)
	}
	if err := answers.Count(&counts.Answers).Error; err != nil {
		return counts, err
	}

	answered := transaction.WithContext(ctx).
		Model(&types.VideoAnswer{}).
		Joins("JOIN video_questions ON video_questions.id = video_answers.question_id").
		Distinct("video_answers.question_id")
	if since != nil {
		answered = answered.Where("video_questions.created_at >= ?", *since)
	}
	if tenantID != nil {
		answered = answered.Where("video_questions.tenant_id = ?", *tenantID)
	}
	if err := answered.Count(&counts.Answered).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

func (r *questionRepo) CountsByTenant(ctx context.Context, tx *gorm.DB, since *time.Time) ([]TenantQACount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.VideoQuestion{}).
		Select(`tenant_id,
			COUNT(*) AS questions,
			SUM(CASE WHEN EXISTS (
				SELECT 1 FROM video_answers WHERE video_answers.question_id = video_questions.id
			) THEN 1 ELSE 0 END) AS answered`).
		Where("tenant_id IS NOT NULL").
		Group("tenant_id")
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	var results []TenantQACount
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
