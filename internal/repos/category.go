package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type CategoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, category *types.Category) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Category, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Category, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Category, error)
	ListChildren(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.Category, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	ListAccess(ctx context.Context, tx *gorm.DB) ([]*types.CategoryIndustryAccess, error)
	ListAccessByCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.CategoryIndustryAccess, error)
	ReplaceAccess(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, industryIDs []uuid.UUID) error
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (r *categoryRepo) Create(ctx context.Context, tx *gorm.DB, category *types.Category) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var category types.Category
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var category types.Category
	if err := transaction.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Category{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

func (r *categoryRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Category
	if err := transaction.WithContext(ctx).
		Order("display_order ASC, name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *categoryRepo) ListChildren(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Category
	if err := transaction.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("display_order ASC, name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *categoryRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Category{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *categoryRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Category{}).Error
}

func (r *categoryRepo) ListAccess(ctx context.Context, tx *gorm.DB) ([]*types.CategoryIndustryAccess, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CategoryIndustryAccess
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *categoryRepo) ListAccessByCategory(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID) ([]*types.CategoryIndustryAccess, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CategoryIndustryAccess
	if err := transaction.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ReplaceAccess swaps the industry allow-list for a category. An empty list
// deletes all rows, which makes the category public again.
func (r *categoryRepo) ReplaceAccess(ctx context.Context, tx *gorm.DB, categoryID uuid.UUID, industryIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("category_id = ?", categoryID).
			Delete(&types.CategoryIndustryAccess{}).Error; err != nil {
			return err
		}
		for _, indID := range industryIDs {
			row := types.CategoryIndustryAccess{CategoryID: categoryID, IndustryID: indID}
			if err := txx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
