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
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type IndustryInput struct {
	Name        string `json:"name"`
	NameEN      string `json:"name_en"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

type IndustryService interface {
	List(ctx context.Context) ([]*types.Industry, error)
	Create(ctx context.Context, rc *ctxutil.RequestContext, input IndustryInput) (*types.Industry, error)
	Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input IndustryInput) (*types.Industry, error)
	Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error
}

type industryService struct {
	industryRepo repos.IndustryRepo
	log          *logger.Logger
}

func NewIndustryService(industryRepo repos.IndustryRepo, baseLog *logger.Logger) IndustryService {
	serviceLog := baseLog.With("service", "IndustryService")
	return &industryService{industryRepo: industryRepo, log: serviceLog}
}

func (s *industryService) List(ctx context.Context) ([]*types.Industry, error) {
	return s.industryRepo.List(ctx, nil)
}

func (s *industryService) Create(ctx context.Context, rc *ctxutil.RequestContext, input IndustryInput) (*types.Industry, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: industry name is required", ErrValidation)
	}
	if taken, err := s.industryRepo.NameExists(ctx, nil, input.Name, uuid.Nil); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: industry %q", ErrConflict, input.Name)
	}
	if input.Icon == "" {
		input.Icon = "bi-building"
	}
	if input.Color == "" {
		input.Color = "#667eea"
	}
	industry := &types.Industry{
		Name:        input.Name,
		NameEN:      input.NameEN,
		Description: input.Description,
		Icon:        input.Icon,
		Color:       input.Color,
	}
	if err := s.industryRepo.Create(ctx, nil, industry); err != nil {
		return nil, err
	}
	s.log.Info("Industry created", "name", industry.Name)
	return industry, nil
}

func (s *industryService) Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input IndustryInput) (*types.Industry, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.industryRepo.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: industry", ErrNotFound)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(input.Name); name != "" {
		if taken, err := s.industryRepo.NameExists(ctx, nil, name, id); err != nil {
			return nil, err
		} else if taken {
			return nil, fmt.Errorf("%w: industry %q", ErrConflict, name)
		}
		updates["name"] = name
	}
	if input.NameEN != "" {
		updates["name_en"] = input.NameEN
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
	if err := s.industryRepo.Update(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return s.industryRepo.GetByID(ctx, nil, id)
}

// Delete refuses to remove an industry that still has users or tenants
// attached, since those rows would silently lose their classification.
func (s *industryService) Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error {
	if !rc.IsSuperAdmin() {
		return fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.industryRepo.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: industry", ErrNotFound)
		}
		return err
	}
	users, err := s.industryRepo.CountUsers(ctx, nil, id)
	if err != nil {
		return err
	}
	if users > 0 {
		return fmt.Errorf("%w: industry still has %d users", ErrValidation, users)
	}
	tenants, err := s.industryRepo.CountTenants(ctx, nil, id)
	if err != nil {
		return err
	}
	if tenants > 0 {
		return fmt.Errorf("%w: industry still has %d tenants", ErrValidation, tenants)
	}
	return s.industryRepo.Delete(ctx, nil, id)
}
