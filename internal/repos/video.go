package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type VideoRepo interface {
	Create(ctx context.Context, tx *gorm.DB, video *types.Video) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Video, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Video, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Video, error)
	ListByCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.Video, error)
	ListByCategoryIDs(ctx context.Context, tx *gorm.DB, categoryIDs []uuid.UUID) ([]*types.Video, error)
	ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Video, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	NullCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SearchKeywords(ctx context.Context, tx *gorm.DB, keywords []string, limit int) ([]*types.Video, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type VideoTranscriptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, transcript *types.VideoTranscript) error
	ListByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) ([]*types.VideoTranscript, error)
	DeleteByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) error
	DeleteByVideoAndType(ctx context.Context, tx *gorm.DB, videoID uuid.UUID, contentType string) error
	SearchKeywords(ctx context.Context, tx *gorm.DB, keywords []string, limit int) ([]*types.VideoTranscript, error)
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	repoLog := baseLog.With("repo", "VideoRepo")
	return &videoRepo{db: db, log: repoLog}
}

func (r *videoRepo) Create(ctx context.Context, tx *gorm.DB, video *types.Video) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(video).Error
}

func (r *videoRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var video types.Video
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var video types.Video
	if err := transaction.WithContext(ctx).Where("slug = ?", slug).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Video{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

func (r *videoRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Video
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoRepo) ListByCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Video
	if err := transaction.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoRepo) ListByCategoryIDs(ctx context.Context, tx *gorm.DB, categoryIDs []uuid.UUID) ([]*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Video
	if len(categoryIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("category_id IN ?", categoryIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoRepo) ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Video
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Video{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// NullCategory detaches every video in a category without deleting them.
func (r *videoRepo) NullCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Video{}).
		Where("category_id = ?", categoryID).
		Update("category_id", nil).Error
}

func (r *videoRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Video{}).Error
}

// SearchKeywords matches any keyword against title, description and summary.
func (r *videoRepo) SearchKeywords(ctx context.Context, tx *gorm.DB, keywords []string, limit int) ([]*types.Video, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Video
	if len(keywords) == 0 {
		return results, nil
	}
	q := transaction.WithContext(ctx).Model(&types.Video{})
	cond := transaction.Session(&gorm.Session{NewDB: true})
	for _, kw := range keywords {
		pattern := "%" + kw + "%"
		cond = cond.Or("title LIKE ? OR description LIKE ? OR summary LIKE ?", pattern, pattern, pattern)
	}
	if err := q.Where(cond).Limit(limit).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).Model(&types.Video{}).Count(&count).Error
	return count, err
}

type videoTranscriptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoTranscriptRepo(db *gorm.DB, baseLog *logger.Logger) VideoTranscriptRepo {
	repoLog := baseLog.With("repo", "VideoTranscriptRepo")
	return &videoTranscriptRepo{db: db, log: repoLog}
}

func (r *videoTranscriptRepo) Create(ctx context.Context, tx *gorm.DB, transcript *types.VideoTranscript) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(transcript).Error
}

func (r *videoTranscriptRepo) ListByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) ([]*types.VideoTranscript, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.VideoTranscript
	if err := transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("timestamp_start ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *videoTranscriptRepo) DeleteByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.VideoTranscript{}).Error
}

func (r *videoTranscriptRepo) DeleteByVideoAndType(ctx context.Context, tx *gorm.DB, videoID uuid.UUID, contentType string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("video_id = ? AND content_type = ?", videoID, contentType).
		Delete(&types.VideoTranscript{}).Error
}

func (r *videoTranscriptRepo) SearchKeywords(ctx context.Context, tx *gorm.DB, keywords []string, limit int) ([]*types.VideoTranscript, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.VideoTranscript
	if len(keywords) == 0 {
		return results, nil
	}
	q := transaction.WithContext(ctx).Model(&types.VideoTranscript{})
	cond := transaction.Session(&gorm.Session{NewDB: true})
	for _, kw := range keywords {
		cond = cond.Or("content LIKE ?", "%"+kw+"%")
	}
	if err := q.Where(cond).Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
