package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type CreateUserInput struct {
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	CompanyName  string     `json:"company_name"`
	Role         string     `json:"role"`
	IndustryID   *uuid.UUID `json:"industry_id"`
	TenantID     *uuid.UUID `json:"tenant_id"`
	DepartmentID *uuid.UUID `json:"department_id"`
}

type UpdateUserInput struct {
	Email        *string    `json:"email"`
	Password     *string    `json:"password"`
	CompanyName  *string    `json:"company_name"`
	Role         *string    `json:"role"`
	IndustryID   *uuid.UUID `json:"industry_id"`
	TenantID     *uuid.UUID `json:"tenant_id"`
	DepartmentID *uuid.UUID `json:"department_id"`
}

type CSVImportResult struct {
	Success bool     `json:"success"`
	Created int      `json:"created"`
	Errors  []string `json:"errors"`
}

type UserService interface {
	List(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.User, error)
	Get(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) (*types.User, error)
	Create(ctx context.Context, rc *ctxutil.RequestContext, input CreateUserInput) (*types.User, error)
	Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input UpdateUserInput) (*types.User, error)
	Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error
	ImportCSV(ctx context.Context, rc *ctxutil.RequestContext, file io.Reader) (*CSVImportResult, error)
	ExportCSV(ctx context.Context, rc *ctxutil.RequestContext) ([]byte, error)
}

type userService struct {
	db             *gorm.DB
	userRepo       repos.UserRepo
	industryRepo   repos.IndustryRepo
	tenantRepo     repos.TenantRepo
	departmentRepo repos.DepartmentRepo
	progressRepo   repos.ProgressRepo
	chatRepo       repos.ChatHistoryRepo
	log            *logger.Logger
}

func NewUserService(
	db *gorm.DB,
	userRepo repos.UserRepo,
	industryRepo repos.IndustryRepo,
	tenantRepo repos.TenantRepo,
	departmentRepo repos.DepartmentRepo,
	progressRepo repos.ProgressRepo,
	chatRepo repos.ChatHistoryRepo,
	baseLog *logger.Logger,
) UserService {
	serviceLog := baseLog.With("service", "UserService")
	return &userService{
		db:             db,
		userRepo:       userRepo,
		industryRepo:   industryRepo,
		tenantRepo:     tenantRepo,
		departmentRepo: departmentRepo,
		progressRepo:   progressRepo,
		chatRepo:       chatRepo,
		log:            serviceLog,
	}
}

func (s *userService) List(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.User, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	return s.userRepo.List(ctx, nil, TenantScope(rc, "tenant_id", "id"))
}

func (s *userService) Get(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) (*types.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.canManage(rc, user); err != nil {
		return nil, err
	}
	return user, nil
}

// canManage checks whether the caller may read or mutate the target account.
// Company admins are confined to their own tenant.
func (s *userService) canManage(rc *ctxutil.RequestContext, target *types.User) error {
	if rc.IsSuperAdmin() {
		return nil
	}
	if !rc.IsCompanyAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if rc.TenantID == nil || target.TenantID == nil || *rc.TenantID != *target.TenantID {
		return fmt.Errorf("%w: user belongs to another tenant", ErrForbidden)
	}
	return nil
}

func (s *userService) validateNewUser(input *CreateUserInput) error {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if input.Email == "" || !emailPattern.MatchString(input.Email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if input.Password == "" {
		return fmt.Errorf("%w: password must not be empty", ErrValidation)
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if input.Role == "" {
		input.Role = ctxutil.RoleUser
	}
	if !ctxutil.IsValidRole(input.Role) {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, input.Role)
	}
	return nil
}

// applyRolePolicy enforces who may assign which role. Company admins can only
// create plain users, and only inside their own tenant.
func applyRolePolicy(rc *ctxutil.RequestContext, input *CreateUserInput) error {
	if rc.IsSuperAdmin() {
		return nil
	}
	if !rc.IsCompanyAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if input.Role == ctxutil.RoleSuperAdmin {
		return fmt.Errorf("%w: company admins cannot create super_admin accounts", ErrForbidden)
	}
	if input.Role == ctxutil.RoleCompanyAdmin {
		return fmt.Errorf("%w: company admins cannot create company_admin accounts", ErrForbidden)
	}
	input.TenantID = rc.TenantID
	if rc.IndustryID != nil {
		input.IndustryID = rc.IndustryID
	}
	return nil
}

func (s *userService) Create(ctx context.Context, rc *ctxutil.RequestContext, input CreateUserInput) (*types.User, error) {
	if err := s.validateNewUser(&input); err != nil {
		return nil, err
	}
	if err := applyRolePolicy(rc, &input); err != nil {
		return nil, err
	}

	if taken, err := s.userRepo.UsernameExists(ctx, nil, input.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: username %q", ErrConflict, input.Username)
	}
	if taken, err := s.userRepo.EmailExists(ctx, nil, input.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: email %q", ErrConflict, input.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		CompanyName:  input.CompanyName,
		Role:         input.Role,
		IndustryID:   input.IndustryID,
		TenantID:     input.TenantID,
		DepartmentID: input.DepartmentID,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, err
	}
	s.log.Info("User created", "username", user.Username, "role", user.Role, "by", rc.Username)
	return user, nil
}

func (s *userService) Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input UpdateUserInput) (*types.User, error) {
	user, err := s.Get(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if !emailPattern.MatchString(email) {
			return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
		}
		updates["email"] = email
	}
	if input.Password != nil {
		if utf8.RuneCountInString(*input.Password) < minPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}
	if input.CompanyName != nil {
		updates["company_name"] = *input.CompanyName
	}
	if input.Role != nil && *input.Role != user.Role {
		if !ctxutil.IsValidRole(*input.Role) {
			return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, *input.Role)
		}
		if !rc.IsSuperAdmin() {
			return nil, fmt.Errorf("%w: only super_admin can change roles", ErrForbidden)
		}
		// Demoting the last company_admin would leave the tenant unmanageable.
		if user.Role == ctxutil.RoleCompanyAdmin && *input.Role != ctxutil.RoleCompanyAdmin && user.TenantID != nil {
			remaining, err := s.userRepo.CountTenantAdmins(ctx, nil, *user.TenantID, user.ID)
			if err != nil {
				return nil, err
			}
			if remaining == 0 {
				return nil, ErrLastTenantAdmin
			}
		}
		updates["role"] = *input.Role
	}
	if rc.IsSuperAdmin() {
		if input.IndustryID != nil {
			updates["industry_id"] = *input.IndustryID
		}
		if input.TenantID != nil {
			updates["tenant_id"] = *input.TenantID
		}
	}
	if input.DepartmentID != nil {
		updates["department_id"] = *input.DepartmentID
	}

	if err := s.userRepo.Update(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, nil, id)
}

func (s *userService) Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error {
	user, err := s.Get(ctx, rc, id)
	if err != nil {
		return err
	}
	if user.ID == rc.UserID {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}
	if user.Role == ctxutil.RoleCompanyAdmin && user.TenantID != nil {
		remaining, err := s.userRepo.CountTenantAdmins(ctx, nil, *user.TenantID, user.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return ErrLastTenantAdmin
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.progressRepo.DeleteByUser(ctx, tx, user.ID); err != nil {
			return err
		}
		if err := s.chatRepo.DeleteByUser(ctx, tx, user.ID); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, tx, user.ID)
	})
}

// ImportCSV creates one user per row. The expected column order is
// ユーザー名, メール, パスワード, 会社名, ロール, 業種, テナント, 部署.
// Each row stands alone: a bad row is reported in errors and skipped
// without rolling back earlier rows.
func (s *userService) ImportCSV(ctx context.Context, rc *ctxutil.RequestContext, file io.Reader) (*CSVImportResult, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable file", ErrValidation)
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed CSV: %v", ErrValidation, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: CSV has no data rows", ErrValidation)
	}

	result := &CSVImportResult{Success: true, Errors: []string{}}
	for i, row := range rows[1:] {
		line := i + 2
		if err := s.importRow(ctx, rc, row); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Created++
	}
	s.log.Info("CSV import finished", "created", result.Created, "errors", len(result.Errors), "by", rc.Username)
	return result, nil
}

func (s *userService) importRow(ctx context.Context, rc *ctxutil.RequestContext, row []string) error {
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	input := CreateUserInput{
		Username:    field(0),
		Email:       field(1),
		Password:    field(2),
		CompanyName: field(3),
		Role:        field(4),
	}

	if name := field(5); name != "" {
		id, err := s.lookupIndustry(ctx, name)
		if err != nil {
			return err
		}
		input.IndustryID = id
	}
	if name := field(6); name != "" {
		id, err := s.lookupTenant(ctx, name)
		if err != nil {
			return err
		}
		input.TenantID = id
	}
	if name := field(7); name != "" && input.TenantID != nil {
		depts, err := s.departmentRepo.ListByTenant(ctx, nil, *input.TenantID)
		if err != nil {
			return err
		}
		for _, d := range depts {
			if d.Name == name {
				id := d.ID
				input.DepartmentID = &id
				break
			}
		}
	}

	_, err := s.Create(ctx, rc, input)
	return err
}

func (s *userService) lookupIndustry(ctx context.Context, name string) (*uuid.UUID, error) {
	industries, err := s.industryRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, ind := range industries {
		if ind.Name == name {
			id := ind.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown industry %q", ErrValidation, name)
}

func (s *userService) lookupTenant(ctx context.Context, name string) (*uuid.UUID, error) {
	tenants, err := s.tenantRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, t := range tenants {
		if t.Name == name {
			id := t.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown tenant %q", ErrValidation, name)
}

// ExportCSV renders the caller-visible users with a UTF-8 BOM so Excel opens
// the Japanese headers correctly. The columns mirror the import format so an
// exported file can be re-imported; passwords are never exported, the column
// stays empty.
func (s *userService) ExportCSV(ctx context.Context, rc *ctxutil.RequestContext) ([]byte, error) {
	users, err := s.List(ctx, rc)
	if err != nil {
		return nil, err
	}

	industries, err := s.industryRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	tenants, err := s.tenantRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	industryNames := make(map[uuid.UUID]string, len(industries))
	for _, ind := range industries {
		industryNames[ind.ID] = ind.Name
	}
	tenantNames := make(map[uuid.UUID]string, len(tenants))
	for _, t := range tenants {
		tenantNames[t.ID] = t.Name
	}

	deptNames := map[uuid.UUID]string{}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	w := csv.NewWriter(&buf)
	header := []string{"ユーザー名", "メール", "パスワード", "会社名", "ロール", "業種", "テナント", "部署"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, u := range users {
		industry, tenant, department := "", "", ""
		if u.IndustryID != nil {
			industry = industryNames[*u.IndustryID]
		}
		if u.TenantID != nil {
			tenant = tenantNames[*u.TenantID]
		}
		if u.DepartmentID != nil {
			name, ok := deptNames[*u.DepartmentID]
			if !ok {
				if dept, err := s.departmentRepo.GetByID(ctx, nil, *u.DepartmentID); err == nil {
					name = dept.Name
				}
				deptNames[*u.DepartmentID] = name
			}
			department = name
		}
		record := []string{
			u.Username,
			u.Email,
			"",
			u.CompanyName,
			u.Role,
			industry,
			tenant,
			department,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
