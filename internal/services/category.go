package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/slugutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type CategoryInput struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Icon         string      `json:"icon"`
	Color        string      `json:"color"`
	ParentID     *uuid.UUID  `json:"parent_id"`
	DisplayOrder *int        `json:"display_order"`
	IndustryIDs  []uuid.UUID `json:"industry_ids"`
}

type CategoryService interface {
	ListAll(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Category, error)
	Create(ctx context.Context, rc *ctxutil.RequestContext, input CategoryInput) (*types.Category, error)
	Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input CategoryInput) (*types.Category, error)
	Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error
	SetIndustryAccess(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, industryIDs []uuid.UUID) error
	IndustryAccess(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) ([]uuid.UUID, error)
}

type categoryService struct {
	db           *gorm.DB
	categoryRepo repos.CategoryRepo
	videoRepo    repos.VideoRepo
	log          *logger.Logger
}

func NewCategoryService(db *gorm.DB, categoryRepo repos.CategoryRepo, videoRepo repos.VideoRepo, baseLog *logger.Logger) CategoryService {
	serviceLog := baseLog.With("service", "CategoryService")
	return &categoryService{
		db:           db,
		categoryRepo: categoryRepo,
		videoRepo:    videoRepo,
		log:          serviceLog,
	}
}

func (s *categoryService) ListAll(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Category, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	return s.categoryRepo.List(ctx, nil)
}

func (s *categoryService) uniqueSlug(ctx context.Context, tx *gorm.DB, name string) (string, error) {
	base := slugutil.Make(name)
	slug := base
	for n := 2; ; n++ {
		taken, err := s.categoryRepo.SlugExists(ctx, tx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *categoryService) Create(ctx context.Context, rc *ctxutil.RequestContext, input CategoryInput) (*types.Category, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if input.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(ctx, nil, *input.ParentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: parent category", ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		// One level of nesting only, same as the catalog renders.
		if parent.ParentID != nil {
			return nil, fmt.Errorf("%w: subcategories cannot have children", ErrValidation)
		}
	}

	var category *types.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := s.uniqueSlug(ctx, tx, input.Name)
		if err != nil {
			return err
		}
		category = &types.Category{
			Name:        input.Name,
			Slug:        slug,
			Description: input.Description,
			Icon:        input.Icon,
			Color:       input.Color,
			ParentID:    input.ParentID,
		}
		if input.DisplayOrder != nil {
			category.DisplayOrder = *input.DisplayOrder
		}
		if err := s.categoryRepo.Create(ctx, tx, category); err != nil {
			return err
		}
		if len(input.IndustryIDs) > 0 {
			return s.categoryRepo.ReplaceAccess(ctx, tx, category.ID, input.IndustryIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Category created", "name", category.Name, "slug", category.Slug)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input CategoryInput) (*types.Category, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.categoryRepo.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category", ErrNotFound)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(input.Name); name != "" {
		updates["name"] = name
	}
	if input.Description != "" {
		updates["description"] = input.Description
	}
	if input.Icon != "" {
		updates["icon"] = input.Icon
	}
	if input.Color != "" {
		updates["color"] = input.Color
	}
	if input.DisplayOrder != nil {
		updates["display_order"] = *input.DisplayOrder
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.categoryRepo.Update(ctx, tx, id, updates); err != nil {
			return err
		}
		if input.IndustryIDs != nil {
			return s.categoryRepo.ReplaceAccess(ctx, tx, id, input.IndustryIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.GetByID(ctx, nil, id)
}

// Delete refuses while subcategories remain; videos in the category are
// detached, not deleted, so content survives a reorganization.
func (s *categoryService) Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error {
	if !rc.IsSuperAdmin() {
		return fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.categoryRepo.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category", ErrNotFound)
		}
		return err
	}
	children, err := s.categoryRepo.ListChildren(ctx, nil, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: category still has %d subcategories", ErrValidation, len(children))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.videoRepo.NullCategory(ctx, tx, id); err != nil {
			return err
		}
		if err := s.categoryRepo.ReplaceAccess(ctx, tx, id, nil); err != nil {
			return err
		}
		return s.categoryRepo.Delete(ctx, tx, id)
	})
}

func (s *categoryService) SetIndustryAccess(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, industryIDs []uuid.UUID) error {
	if !rc.IsSuperAdmin() {
		return fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.categoryRepo.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category", ErrNotFound)
		}
		return err
	}
	return s.categoryRepo.ReplaceAccess(ctx, nil, id, industryIDs)
}

func (s *categoryService) IndustryAccess(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) ([]uuid.UUID, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	rows, err := s.categoryRepo.ListAccessByCategory(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.IndustryID)
	}
	return ids, nil
}
