package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type TranscriptionJobRepo interface {
	Enqueue(ctx context.Context, tx *gorm.DB, job *types.TranscriptionJob) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TranscriptionJob, error)
	GetLatestByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (*types.TranscriptionJob, error)
	HasPending(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (bool, error)
	ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.TranscriptionJob, error)
	Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) error
}

type transcriptionJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranscriptionJobRepo(db *gorm.DB, baseLog *logger.Logger) TranscriptionJobRepo {
	repoLog := baseLog.With("repo", "TranscriptionJobRepo")
	return &transcriptionJobRepo{db: db, log: repoLog}
}

func (r *transcriptionJobRepo) Enqueue(ctx context.Context, tx *gorm.DB, job *types.TranscriptionJob) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(job).Error
}

func (r *transcriptionJobRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TranscriptionJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.TranscriptionJob
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *transcriptionJobRepo) GetLatestByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (*types.TranscriptionJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.TranscriptionJob
	err := transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *transcriptionJobRepo) HasPending(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.TranscriptionJob{}).
		Where("video_id = ? AND status IN ?", videoID,
			[]string{types.TranscriptionJobQueued, types.TranscriptionJobRunning}).
		Count(&count).Error
	return count > 0, err
}

// ClaimNextRunnable picks the oldest job that is queued, retryable after a
// failure, or running with a stale heartbeat, and flips it to running in the
// same transaction. Returns nil when nothing is claimable.
func (r *transcriptionJobRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.TranscriptionJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.TranscriptionJob
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var job types.TranscriptionJob
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
				(
					status = ?
					OR (
						status = ?
						AND attempts < ?
						AND (last_error_at IS NULL OR last_error_at < ?)
					)
					OR (
						status = ?
						AND heartbeat_at IS NOT NULL
						AND heartbeat_at < ?
					)
				)
			`, types.TranscriptionJobQueued,
				types.TranscriptionJobFailed, maxAttempts, retryCutoff,
				types.TranscriptionJobRunning, staleCutoff).
			Order("created_at ASC")
		qErr := q.First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.TranscriptionJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":       types.TranscriptionJobRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *transcriptionJobRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.TranscriptionJob{}).
		Where("id = ? AND status = ?", id, types.TranscriptionJobRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

func (r *transcriptionJobRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.TranscriptionJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *transcriptionJobRepo) DeleteByVideo(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("video_id = ?", videoID).
		Delete(&types.TranscriptionJob{}).Error
}
