package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type IndustryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, industry *types.Industry) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Industry, error)
	NameExists(ctx context.Context, tx *gorm.DB, name string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Industry, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountUsers(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	CountTenants(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
}

type industryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIndustryRepo(db *gorm.DB, baseLog *logger.Logger) IndustryRepo {
	repoLog := baseLog.With("repo", "IndustryRepo")
	return &industryRepo{db: db, log: repoLog}
}

func (r *industryRepo) Create(ctx context.Context, tx *gorm.DB, industry *types.Industry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(industry).Error
}

func (r *industryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Industry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var industry types.Industry
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&industry).Error; err != nil {
		return nil, err
	}
	return &industry, nil
}

func (r *industryRepo) NameExists(ctx context.Context, tx *gorm.DB, name string, excludeID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Industry{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *industryRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Industry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Industry
	if err := transaction.WithContext(ctx).Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *industryRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Industry{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *industryRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Industry{}).Error
}

func (r *industryRepo) CountUsers(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("industry_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *industryRepo) CountTenants(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Tenant{}).
		Where("industry_id = ?", id).
		Count(&count).Error
	return count, err
}
