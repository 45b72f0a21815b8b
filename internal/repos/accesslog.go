package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type AccessLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.AccessLog) error
	ListRecent(ctx context.Context, tx *gorm.DB, filter AccessLogFilter) ([]*types.AccessLog, error)
	CountSince(ctx context.Context, tx *gorm.DB, since time.Time, tenantID *uuid.UUID) (int64, error)
	ActiveUserCountSince(ctx context.Context, tx *gorm.DB, since time.Time, tenantID *uuid.UUID) (int64, error)
	PathCountsSince(ctx context.Context, tx *gorm.DB, since time.Time, tenantID *uuid.UUID, limit int) ([]PathCount, error)
	DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type AccessLogFilter struct {
	TenantID *uuid.UUID
	UserID   *uuid.UUID
	Path     string
	Since    *time.Time
	Limit    int
}

type PathCount struct {
	Path  string `gorm:"column:path"`
	Count int64  `gorm:"column:count"`
}

type accessLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccessLogRepo(db *gorm.DB, baseLog *logger.Logger) AccessLogRepo {
	repoLog := baseLog.With("repo", "AccessLogRepo")
	return &accessLogRepo{db: db, log: repoLog}
}

func (r *accessLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.AccessLog) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}

func (r *accessLogRepo) ListRecent(ctx context.Context, tx *gorm.DB, filter AccessLogFilter) ([]*types.AccessLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.AccessLog{})
	if filter.TenantID != nil {
		q = q.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Path != "" {
		q = q.Where("path LIKE ?", "%"+filter.Path+"%")
	}
	if filter.Since != nil {
		q = q.Where("created_at >= ?", *filter.Since)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var results []*types.AccessLog
	if err := q.Order("created_at DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *accessLogRepo) CountSince(ctx context.Context, tx *gorm.DB, since time.Time, tenantID *uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.AccessLog{}).
		Where("created_at >= ?", since)
	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *accessLogRepo) ActiveUserCountSince(ctx context.Context, tx *gorm.DB, since time.Time, tenantID *uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.AccessLog{}).
		Where("created_at >= ? AND user_id IS NOT NULL", since)
	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	var count int64
	err := q.Distinct("user_id").Count(&count).Error
	return count, err
}

func (r *accessLogRepo) PathCountsSince(ctx context.Context, tx *gorm.DB, since time.Time, tenantID *uuid.UUID, limit int) ([]PathCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	q := transaction.WithContext(ctx).
		Model(&types.AccessLog{}).
		Select("path, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("path").
		Order("count DESC").
		Limit(limit)
	if tenantID != nil {
		q = q.Where("tenant_id = ?", *tenantID)
	}
	var results []PathCount
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *accessLogRepo) DeleteBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&types.AccessLog{})
	return res.RowsAffected, res.Error
}
