package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type TenantInput struct {
	Name       string     `json:"name"`
	IndustryID *uuid.UUID `json:"industry_id"`
	Logo       string     `json:"logo"`
}

type DepartmentInput struct {
	Name               string     `json:"name"`
	ParentDepartmentID *uuid.UUID `json:"parent_department_id"`
}

type TenantService interface {
	List(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Tenant, error)
	Get(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) (*types.Tenant, error)
	Create(ctx context.Context, rc *ctxutil.RequestContext, input TenantInput) (*types.Tenant, error)
	Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input TenantInput) (*types.Tenant, error)
	Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error

	Health(ctx context.Context, rc *ctxutil.RequestContext) ([]TenantHealth, error)

	ListDepartments(ctx context.Context, rc *ctxutil.RequestContext, tenantID uuid.UUID) ([]*types.Department, error)
	CreateDepartment(ctx context.Context, rc *ctxutil.RequestContext, tenantID uuid.UUID, input DepartmentInput) (*types.Department, error)
	DeleteDepartment(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error
	DepartmentStats(ctx context.Context, rc *ctxutil.RequestContext, tenantID uuid.UUID) ([]DepartmentStats, error)
}

// TenantHealth flags tenants that would lock their members out of admin
// functions: a tenant without a company_admin cannot manage itself.
type TenantHealth struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	Users    int64     `json:"users"`
	Admins   int64     `json:"admins"`
	Healthy  bool      `json:"healthy"`
}

type DepartmentStats struct {
	DepartmentID uuid.UUID `json:"department_id"`
	Name         string    `json:"name"`
	Members      int64     `json:"members"`
}

type tenantService struct {
	db             *gorm.DB
	tenantRepo     repos.TenantRepo
	departmentRepo repos.DepartmentRepo
	userRepo       repos.UserRepo
	logoService    LogoService
	log            *logger.Logger
}

func NewTenantService(
	db *gorm.DB,
	tenantRepo repos.TenantRepo,
	departmentRepo repos.DepartmentRepo,
	userRepo repos.UserRepo,
	logoService LogoService,
	baseLog *logger.Logger,
) TenantService {
	serviceLog := baseLog.With("service", "TenantService")
	return &tenantService{
		db:             db,
		tenantRepo:     tenantRepo,
		departmentRepo: departmentRepo,
		userRepo:       userRepo,
		logoService:    logoService,
		log:            serviceLog,
	}
}

func (s *tenantService) List(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Tenant, error) {
	if rc.IsSuperAdmin() {
		return s.tenantRepo.List(ctx, nil)
	}
	if rc.TenantID == nil {
		return []*types.Tenant{}, nil
	}
	tenant, err := s.tenantRepo.GetByID(ctx, nil, *rc.TenantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []*types.Tenant{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []*types.Tenant{tenant}, nil
}

func (s *tenantService) Get(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) (*types.Tenant, error) {
	if !rc.IsSuperAdmin() && (rc.TenantID == nil || *rc.TenantID != id) {
		return nil, fmt.Errorf("%w: tenant belongs to another organization", ErrForbidden)
	}
	tenant, err := s.tenantRepo.GetByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: tenant", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) Create(ctx context.Context, rc *ctxutil.RequestContext, input TenantInput) (*types.Tenant, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", ErrValidation)
	}
	if taken, err := s.tenantRepo.NameExists(ctx, nil, input.Name, uuid.Nil); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: tenant %q", ErrConflict, input.Name)
	}

	tenant := &types.Tenant{
		Name:       input.Name,
		IndustryID: input.IndustryID,
		Logo:       input.Logo,
	}
	if tenant.Logo == "" && s.logoService != nil {
		if png, err := s.logoService.Generate(tenant.Name); err == nil {
			tenant.Logo = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
		} else {
			s.log.Warn("Placeholder logo generation failed", "tenant", tenant.Name, "error", err)
		}
	}
	if err := s.tenantRepo.Create(ctx, nil, tenant); err != nil {
		return nil, err
	}
	s.log.Info("Tenant created", "name", tenant.Name)
	return tenant, nil
}

func (s *tenantService) Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input TenantInput) (*types.Tenant, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.tenantRepo.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tenant", ErrNotFound)
		}
		return nil, err
	}
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(input.Name); name != "" {
		if taken, err := s.tenantRepo.NameExists(ctx, nil, name, id); err != nil {
			return nil, err
		} else if taken {
			return nil, fmt.Errorf("%w: tenant %q", ErrConflict, name)
		}
		updates["name"] = name
	}
	if input.IndustryID != nil {
		updates["industry_id"] = *input.IndustryID
	}
	if input.Logo != "" {
		updates["logo"] = input.Logo
	}
	if err := s.tenantRepo.Update(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return s.tenantRepo.GetByID(ctx, nil, id)
}

func (s *tenantService) Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error {
	if !rc.IsSuperAdmin() {
		return fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.tenantRepo.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: tenant", ErrNotFound)
		}
		return err
	}
	members, err := s.userRepo.CountByTenant(ctx, nil, id)
	if err != nil {
		return err
	}
	if members > 0 {
		return fmt.Errorf("%w: tenant still has %d users", ErrValidation, members)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		depts, err := s.departmentRepo.ListByTenant(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, d := range depts {
			if err := s.departmentRepo.Delete(ctx, tx, d.ID); err != nil {
				return err
			}
		}
		return s.tenantRepo.Delete(ctx, tx, id)
	})
}

func (s *tenantService) Health(ctx context.Context, rc *ctxutil.RequestContext) ([]TenantHealth, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	tenants, err := s.List(ctx, rc)
	if err != nil {
		return nil, err
	}
	counts, err := s.userRepo.CountsByTenant(ctx, nil)
	if err != nil {
		return nil, err
	}
	byTenant := make(map[uuid.UUID]repos.TenantUserCount, len(counts))
	for _, c := range counts {
		byTenant[c.TenantID] = c
	}

	out := make([]TenantHealth, 0, len(tenants))
	for _, t := range tenants {
		c := byTenant[t.ID]
		out = append(out, TenantHealth{
			TenantID: t.ID,
			Name:     t.Name,
			Users:    c.Users,
			Admins:   c.Admins,
			Healthy:  c.Admins > 0,
		})
	}
	return out, nil
}

func (s *tenantService) ListDepartments(ctx context.Context, rc *ctxutil.RequestContext, tenantID uuid.UUID) ([]*types.Department, error) {
	if !rc.IsSuperAdmin() && (rc.TenantID == nil || *rc.TenantID != tenantID) {
		return nil, fmt.Errorf("%w: tenant belongs to another organization", ErrForbidden)
	}
	return s.departmentRepo.ListByTenant(ctx, nil, tenantID)
}

func (s *tenantService) CreateDepartment(ctx context.Context, rc *ctxutil.RequestContext, tenantID uuid.UUID, input DepartmentInput) (*types.Department, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if !rc.IsSuperAdmin() && (rc.TenantID == nil || *rc.TenantID != tenantID) {
		return nil, fmt.Errorf("%w: tenant belongs to another organization", ErrForbidden)
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: department name is required", ErrValidation)
	}
	dept := &types.Department{
		TenantID:           tenantID,
		Name:               input.Name,
		ParentDepartmentID: input.ParentDepartmentID,
	}
	if err := s.departmentRepo.Create(ctx, nil, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

func (s *tenantService) DeleteDepartment(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error {
	dept, err := s.departmentRepo.GetByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: department", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if !rc.IsManager() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if !rc.IsSuperAdmin() && (rc.TenantID == nil || *rc.TenantID != dept.TenantID) {
		return fmt.Errorf("%w: department belongs to another tenant", ErrForbidden)
	}
	members, err := s.departmentRepo.CountMembers(ctx, nil, id)
	if err != nil {
		return err
	}
	if members > 0 {
		return fmt.Errorf("%w: department still has %d members", ErrValidation, members)
	}
	return s.departmentRepo.Delete(ctx, nil, id)
}

func (s *tenantService) DepartmentStats(ctx context.Context, rc *ctxutil.RequestContext, tenantID uuid.UUID) ([]DepartmentStats, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if !rc.IsSuperAdmin() && (rc.TenantID == nil || *rc.TenantID != tenantID) {
		return nil, fmt.Errorf("%w: tenant belongs to another organization", ErrForbidden)
	}
	counts, err := s.departmentRepo.MemberCounts(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]DepartmentStats, 0, len(counts))
	for _, c := range counts {
		out = append(out, DepartmentStats{
			DepartmentID: c.DepartmentID,
			Name:         c.Name,
			Members:      c.Members,
		})
	}
	return out, nil
}
