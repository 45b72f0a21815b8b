package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type ProgressRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, progress *types.Progress) error
	GetByUserAndVideo(ctx context.Context, tx *gorm.DB, userID, videoID uuid.UUID) (*types.Progress, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Progress, error)
	ListByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) ([]*types.Progress, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	DeleteByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) error
	CompletionByVideo(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, since *time.Time) ([]VideoCompletion, error)
	SummaryByUser(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, since *time.Time) ([]UserProgressSummary, error)
}

// VideoCompletion is a per-video aggregate over a population of users.
type VideoCompletion struct {
	VideoID     uuid.UUID `gorm:"column:video_id"`
	Viewers     int64     `gorm:"column:viewers"`
	Completed   int64     `gorm:"column:completed"`
	AvgProgress float64   `gorm:"column:avg_progress"`
}

// UserProgressSummary is the per-user mirror of VideoCompletion.
type UserProgressSummary struct {
	UserID        uuid.UUID  `gorm:"column:user_id"`
	VideosStarted int64      `gorm:"column:videos_started"`
	Completed     int64      `gorm:"column:completed"`
	AvgProgress   float64    `gorm:"column:avg_progress"`
	LastActivity  *time.Time `gorm:"column:last_activity"`
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	repoLog := baseLog.With("repo", "ProgressRepo")
	return &progressRepo{db: db, log: repoLog}
}

// Upsert writes the row keyed on (user_id, video_id). Replays of older
// positions still win; the service layer decides whether to clamp.
func (r *progressRepo) Upsert(ctx context.Context, tx *gorm.DB, progress *types.Progress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	progress.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"progress_percent", "last_position", "updated_at",
			}),
		}).
		Create(progress).Error
}

func (r *progressRepo) GetByUserAndVideo(ctx context.Context, tx *gorm.DB, userID, videoID uuid.UUID) (*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var progress types.Progress
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Progress
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) ListByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) ([]*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Progress
	if err := transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.Progress{}).Error
}

func (r *progressRepo) DeleteByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.Progress{}).Error
}

func (r *progressRepo) CompletionByVideo(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, since *time.Time) ([]VideoCompletion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []VideoCompletion
	q := transaction.WithContext(ctx).
		Model(&types.Progress{}).
		Select(`video_id,
			COUNT(*) AS viewers,
			SUM(CASE WHEN progress_percent >= 100 THEN 1 ELSE 0 END) AS completed,
			AVG(progress_percent) AS avg_progress`).
		Group("video_id")
	if len(userIDs) > 0 {
		q = q.Where("user_id IN ?", userIDs)
	}
	if since != nil {
		q = q.Where("updated_at >= ?", *since)
	}
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) SummaryByUser(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, since *time.Time) ([]UserProgressSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []UserProgressSummary
	q := transaction.WithContext(ctx).
		Model(&types.Progress{}).
		Select(`user_id,
			COUNT(*) AS videos_started,
			SUM(CASE WHEN progress_percent >= 100 THEN 1 ELSE 0 END) AS completed,
			AVG(progress_percent) AS avg_progress,
			MAX(updated_at) AS last_activity`).
		Group("user_id")
	if len(userIDs) > 0 {
		q = q.Where("user_id IN ?", userIDs)
	}
	if since != nil {
		q = q.Where("updated_at >= ?", *since)
	}
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
