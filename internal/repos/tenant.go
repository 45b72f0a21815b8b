package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type TenantRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tenant *types.Tenant) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Tenant, error)
	NameExists(ctx context.Context, tx *gorm.DB, name string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Tenant, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type DepartmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, dept *types.Department) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Department, error)
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Department, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountMembers(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	MemberCounts(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]DepartmentMemberCount, error)
}

type DepartmentMemberCount struct {
	DepartmentID uuid.UUID `gorm:"column:department_id"`
	Name         string    `gorm:"column:name"`
	Members      int64     `gorm:"column:members"`
}

type tenantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	repoLog := baseLog.With("repo", "TenantRepo")
	return &tenantRepo{db: db, log: repoLog}
}

func (r *tenantRepo) Create(ctx context.Context, tx *gorm.DB, tenant *types.Tenant) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(tenant).Error
}

func (r *tenantRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Tenant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var tenant types.Tenant
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepo) NameExists(ctx context.Context, tx *gorm.DB, name string, excludeID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Tenant{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *tenantRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Tenant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Tenant
	if err := transaction.WithContext(ctx).Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *tenantRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Tenant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *tenantRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Tenant{}).Error
}

type departmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDepartmentRepo(db *gorm.DB, baseLog *logger.Logger) DepartmentRepo {
	repoLog := baseLog.With("repo", "DepartmentRepo")
	return &departmentRepo{db: db, log: repoLog}
}

func (r *departmentRepo) Create(ctx context.Context, tx *gorm.DB, dept *types.Department) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Department, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var dept types.Department
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]*types.Department, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Department
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *departmentRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Department{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *departmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Department{}).Error
}

func (r *departmentRepo) CountMembers(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("department_id = ?", id).
		Count(&count).Error
	return count, err
}

// MemberCounts includes empty departments; the LEFT JOIN keeps zero rows.
func (r *departmentRepo) MemberCounts(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]DepartmentMemberCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []DepartmentMemberCount
	if err := transaction.WithContext(ctx).
		Model(&types.Department{}).
		Select(`departments.id AS department_id,
			departments.name AS name,
			COUNT(users.id) AS members`).
		Joins("LEFT JOIN users ON users.department_id = departments.id").
		Where("departments.tenant_id = ?", tenantID).
		Group("departments.id, departments.name").
		Order("departments.name ASC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
