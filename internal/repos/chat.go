package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type UsecaseRepo interface {
	ListByIndustry(ctx context.Context, tx *gorm.DB, industryID uuid.UUID) ([]*types.IndustryUsecase, error)
	SearchKeywords(ctx context.Context, tx *gorm.DB, industryID *uuid.UUID, keywords []string, limit int) ([]*types.IndustryUsecase, error)
}

type KnowledgeRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, entry *types.ExternalKnowledge) error
	List(ctx context.Context, tx *gorm.DB) ([]*types.ExternalKnowledge, error)
	DeleteBySourceFile(ctx context.Context, tx *gorm.DB, sourceFile string) error
	SearchKeywords(ctx context.Context, tx *gorm.DB, industryID *uuid.UUID, keywords []string, limit int) ([]*types.ExternalKnowledge, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type ChatHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.ChatHistory) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatHistory, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type usecaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUsecaseRepo(db *gorm.DB, baseLog *logger.Logger) UsecaseRepo {
	repoLog := baseLog.With("repo", "UsecaseRepo")
	return &usecaseRepo{db: db, log: repoLog}
}

func (r *usecaseRepo) ListByIndustry(ctx context.Context, tx *gorm.DB, industryID uuid.UUID) ([]*types.IndustryUsecase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.IndustryUsecase
	if err := transaction.WithContext(ctx).
		Where("industry_id = ?", industryID).
		Order("title ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *usecaseRepo) SearchKeywords(ctx context.Context, tx *gorm.DB, industryID *uuid.UUID, keywords []string, limit int) ([]*types.IndustryUsecase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.IndustryUsecase
	if len(keywords) == 0 {
		return results, nil
	}
	q := transaction.WithContext(ctx).Model(&types.IndustryUsecase{})
	if industryID != nil {
		q = q.Where("industry_id = ?", *industryID)
	}
	cond := transaction.Session(&gorm.Session{NewDB: true})
	for _, kw := range keywords {
		pattern := "%" + kw + "%"
		cond = cond.Or("title LIKE ? OR description LIKE ? OR keywords LIKE ?", pattern, pattern, pattern)
	}
	if err := q.Where(cond).Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type knowledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeRepo {
	repoLog := baseLog.With("repo", "KnowledgeRepo")
	return &knowledgeRepo{db: db, log: repoLog}
}

// Upsert keys on (source_file, section) so re-ingesting a document replaces
// its previous sections instead of duplicating them.
func (r *knowledgeRepo) Upsert(ctx context.Context, tx *gorm.DB, entry *types.ExternalKnowledge) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var existing types.ExternalKnowledge
	err := transaction.WithContext(ctx).
		Where("source_file = ? AND section = ?", entry.SourceFile, entry.Section).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return transaction.WithContext(ctx).Create(entry).Error
	}
	if err != nil {
		return err
	}
	entry.ID = existing.ID
	return transaction.WithContext(ctx).
		Model(&types.ExternalKnowledge{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"industry_id": entry.IndustryID,
			"title":       entry.Title,
			"content":     entry.Content,
			"keywords":    entry.Keywords,
		}).Error
}

func (r *knowledgeRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.ExternalKnowledge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ExternalKnowledge
	if err := transaction.WithContext(ctx).
		Order("source_file ASC, section ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *knowledgeRepo) DeleteBySourceFile(ctx context.Context, tx *gorm.DB, sourceFile string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("source_file = ?", sourceFile).
		Delete(&types.ExternalKnowledge{}).Error
}

func (r *knowledgeRepo) SearchKeywords(ctx context.Context, tx *gorm.DB, industryID *uuid.UUID, keywords []string, limit int) ([]*types.ExternalKnowledge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ExternalKnowledge
	if len(keywords) == 0 {
		return results, nil
	}
	q := transaction.WithContext(ctx).Model(&types.ExternalKnowledge{})
	if industryID != nil {
		// Entries without an industry are shared across all of them.
		q = q.Where("industry_id = ? OR industry_id IS NULL", *industryID)
	}
	cond := transaction.Session(&gorm.Session{NewDB: true})
	for _, kw := range keywords {
		pattern := "%" + kw + "%"
		cond = cond.Or("title LIKE ? OR content LIKE ? OR keywords LIKE ?", pattern, pattern, pattern)
	}
	if err := q.Where(cond).Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *knowledgeRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).Model(&types.ExternalKnowledge{}).Count(&count).Error
	return count, err
}

type chatHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ChatHistoryRepo {
	repoLog := baseLog.With("repo", "ChatHistoryRepo")
	return &chatHistoryRepo{db: db, log: repoLog}
}

func (r *chatHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.ChatHistory) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}

func (r *chatHistoryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ChatHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ChatHistory
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chatHistoryRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.ChatHistory{}).Error
}
