package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *types.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error)
	UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	List(ctx context.Context, tx *gorm.DB, scope func(*gorm.DB) *gorm.DB) ([]*types.User, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountTenantAdmins(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, excludeUserID uuid.UUID) (int64, error)
	CountByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error)
	CountsByTenant(ctx context.Context, tx *gorm.DB) ([]TenantUserCount, error)
}

// TenantUserCount is a per-tenant headcount with the company_admin subset
// broken out.
type TenantUserCount struct {
	TenantID uuid.UUID `gorm:"column:tenant_id"`
	Users    int64     `gorm:"column:users"`
	Admins   int64     `gorm:"column:admins"`
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var user types.User
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var user types.User
	if err := transaction.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// List applies an optional query scope so callers can restrict results to a
// tenant without the repo knowing about roles.
func (r *userRepo) List(ctx context.Context, tx *gorm.DB, scope func(*gorm.DB) *gorm.DB) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.User{})
	if scope != nil {
		q = scope(q)
	}
	var results []*types.User
	if err := q.Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *userRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.User{}).Error
}

// CountTenantAdmins counts company_admin accounts in a tenant, optionally
// excluding one user. Callers use it to keep every tenant with at least one
// admin.
func (r *userRepo) CountTenantAdmins(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, excludeUserID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("tenant_id = ? AND role = ?", tenantID, types.RoleCompanyAdmin)
	if excludeUserID != uuid.Nil {
		q = q.Where("id <> ?", excludeUserID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *userRepo) CountByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

func (r *userRepo) CountsByTenant(ctx context.Context, tx *gorm.DB) ([]TenantUserCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []TenantUserCount
	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Select(`tenant_id,
			COUNT(*) AS users,
			SUM(CASE WHEN role = ? THEN 1 ELSE 0 END) AS admins`, types.RoleCompanyAdmin).
		Where("tenant_id IS NOT NULL").
		Group("tenant_id").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
