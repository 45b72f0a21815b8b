package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

// CategoryAccess is a snapshot of the category allow-list, resolved once per
// request so catalog assembly does not query per category. A category with no
// rows is public; a category with rows is visible only to the listed
// industries.
type CategoryAccess struct {
	allowed map[uuid.UUID]map[uuid.UUID]struct{}
}

func (a *CategoryAccess) CanView(rc *ctxutil.RequestContext, categoryID uuid.UUID) bool {
	if rc != nil && rc.IsSuperAdmin() {
		return true
	}
	industries, restricted := a.allowed[categoryID]
	if !restricted {
		return true
	}
	if rc == nil || rc.IndustryID == nil {
		return false
	}
	_, ok := industries[*rc.IndustryID]
	return ok
}

// Restricted reports whether the category carries an allow-list at all.
func (a *CategoryAccess) Restricted(categoryID uuid.UUID) bool {
	_, ok := a.allowed[categoryID]
	return ok
}

func (a *CategoryAccess) AllowedIndustries(categoryID uuid.UUID) []uuid.UUID {
	industries, ok := a.allowed[categoryID]
	if !ok {
		return nil
	}
	out := make([]uuid.UUID, 0, len(industries))
	for id := range industries {
		out = append(out, id)
	}
	return out
}

type AccessService interface {
	Resolve(ctx context.Context, tx *gorm.DB) (*CategoryAccess, error)
}

type accessService struct {
	categoryRepo repos.CategoryRepo
	log          *logger.Logger
}

func NewAccessService(categoryRepo repos.CategoryRepo, baseLog *logger.Logger) AccessService {
	serviceLog := baseLog.With("service", "AccessService")
	return &accessService{categoryRepo: categoryRepo, log: serviceLog}
}

func (s *accessService) Resolve(ctx context.Context, tx *gorm.DB) (*CategoryAccess, error) {
	rows, err := s.categoryRepo.ListAccess(ctx, tx)
	if err != nil {
		return nil, err
	}
	allowed := make(map[uuid.UUID]map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		set, ok := allowed[row.CategoryID]
		if !ok {
			set = make(map[uuid.UUID]struct{})
			allowed[row.CategoryID] = set
		}
		set[row.IndustryID] = struct{}{}
	}
	return &CategoryAccess{allowed: allowed}, nil
}

// NewCategoryAccess builds a snapshot directly from pairs, used by tests and
// by callers that already hold the rows.
func NewCategoryAccess(pairs map[uuid.UUID][]uuid.UUID) *CategoryAccess {
	allowed := make(map[uuid.UUID]map[uuid.UUID]struct{}, len(pairs))
	for catID, industries := range pairs {
		set := make(map[uuid.UUID]struct{}, len(industries))
		for _, id := range industries {
			set[id] = struct{}{}
		}
		allowed[catID] = set
	}
	return &CategoryAccess{allowed: allowed}
}
