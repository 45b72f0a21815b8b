package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type AnnouncementRepo interface {
	Create(ctx context.Context, tx *gorm.DB, announcement *types.Announcement) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Announcement, error)
	ListVisible(ctx context.Context, tx *gorm.DB, now time.Time, tenantID *uuid.UUID) ([]*types.Announcement, error)
	ListAll(ctx context.Context, tx *gorm.DB, scope func(*gorm.DB) *gorm.DB) ([]*types.Announcement, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type announcementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnouncementRepo(db *gorm.DB, baseLog *logger.Logger) AnnouncementRepo {
	repoLog := baseLog.With("repo", "AnnouncementRepo")
	return &announcementRepo{db: db, log: repoLog}
}

func (r *announcementRepo) Create(ctx context.Context, tx *gorm.DB, announcement *types.Announcement) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(announcement).Error
}

func (r *announcementRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Announcement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var announcement types.Announcement
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&announcement).Error; err != nil {
		return nil, err
	}
	return &announcement, nil
}

// ListVisible returns announcements a user should see right now: active,
// inside their publish/expiry window, and either global or addressed to the
// user's tenant.
func (r *announcementRepo) ListVisible(ctx context.Context, tx *gorm.DB, now time.Time, tenantID *uuid.UUID) ([]*types.Announcement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.Announcement{}).
		Where("is_active = ?", true).
		Where("publish_at <= ?", now).
		Where("expires_at IS NULL OR expires_at > ?", now)
	if tenantID != nil {
		q = q.Where("target_tenant_id IS NULL OR target_tenant_id = ?", *tenantID)
	} else {
		q = q.Where("target_tenant_id IS NULL")
	}
	var results []*types.Announcement
	if err := q.Order("publish_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *announcementRepo) ListAll(ctx context.Context, tx *gorm.DB, scope func(*gorm.DB) *gorm.DB) ([]*types.Announcement, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Announcement{})
	if scope != nil {
		q = scope(q)
	}
	var results []*types.Announcement
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *announcementRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Announcement{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *announcementRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Announcement{}).Error
}
