package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type AnnouncementInput struct {
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Type           string     `json:"type"`
	TargetTenantID *uuid.UUID `json:"target_tenant_id"`
	IsActive       *bool      `json:"is_active"`
	PublishAt      *time.Time `json:"publish_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

type AnnouncementService interface {
	Visible(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Announcement, error)
	ListAll(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Announcement, error)
	Create(ctx context.Context, rc *ctxutil.RequestContext, input AnnouncementInput) (*types.Announcement, error)
	Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input AnnouncementInput) (*types.Announcement, error)
	Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error
}

type announcementService struct {
	announcementRepo repos.AnnouncementRepo
	log              *logger.Logger
}

func NewAnnouncementService(announcementRepo repos.AnnouncementRepo, baseLog *logger.Logger) AnnouncementService {
	serviceLog := baseLog.With("service", "AnnouncementService")
	return &announcementService{announcementRepo: announcementRepo, log: serviceLog}
}

func (s *announcementService) Visible(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Announcement, error) {
	return s.announcementRepo.ListVisible(ctx, nil, time.Now(), rc.TenantID)
}

func (s *announcementService) ListAll(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Announcement, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	return s.announcementRepo.ListAll(ctx, nil, TenantOnlyScope(rc, "target_tenant_id"))
}

// authoringScope validates who may address which audience. Company admins can
// only post to their own tenant; global announcements are super_admin only.
func authoringScope(rc *ctxutil.RequestContext, input *AnnouncementInput) error {
	if rc.IsSuperAdmin() {
		return nil
	}
	if !rc.IsCompanyAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if input.TargetTenantID == nil {
		return fmt.Errorf("%w: company admins must target their own tenant", ErrForbidden)
	}
	if rc.TenantID == nil || *input.TargetTenantID != *rc.TenantID {
		return fmt.Errorf("%w: cannot target another tenant", ErrForbidden)
	}
	return nil
}

func (s *announcementService) Create(ctx context.Context, rc *ctxutil.RequestContext, input AnnouncementInput) (*types.Announcement, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}
	if input.Type == "" {
		input.Type = types.AnnouncementInfo
	}
	if !types.IsValidAnnouncementType(input.Type) {
		return nil, fmt.Errorf("%w: invalid announcement type %q", ErrValidation, input.Type)
	}
	if err := authoringScope(rc, &input); err != nil {
		return nil, err
	}
	if input.PublishAt != nil && input.ExpiresAt != nil && !input.ExpiresAt.After(*input.PublishAt) {
		return nil, fmt.Errorf("%w: expires_at must be after publish_at", ErrValidation)
	}

	announcement := &types.Announcement{
		AuthorID:       rc.UserID,
		Title:          input.Title,
		Content:        input.Content,
		Type:           input.Type,
		TargetTenantID: input.TargetTenantID,
		IsActive:       true,
		ExpiresAt:      input.ExpiresAt,
	}
	if input.PublishAt != nil {
		announcement.PublishAt = *input.PublishAt
	}
	if input.IsActive != nil {
		announcement.IsActive = *input.IsActive
	}
	if err := s.announcementRepo.Create(ctx, nil, announcement); err != nil {
		return nil, err
	}
	s.log.Info("Announcement created", "title", announcement.Title, "type", announcement.Type)
	return announcement, nil
}

func (s *announcementService) canEdit(rc *ctxutil.RequestContext, announcement *types.Announcement) error {
	if rc.IsSuperAdmin() {
		return nil
	}
	if !rc.IsCompanyAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if announcement.TargetTenantID == nil || rc.TenantID == nil || *announcement.TargetTenantID != *rc.TenantID {
		return fmt.Errorf("%w: announcement belongs to another tenant", ErrForbidden)
	}
	return nil
}

func (s *announcementService) Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input AnnouncementInput) (*types.Announcement, error) {
	announcement, err := s.announcementRepo.GetByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: announcement", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.canEdit(rc, announcement); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if title := strings.TrimSpace(input.Title); title != "" {
		updates["title"] = title
	}
	if content := strings.TrimSpace(input.Content); content != "" {
		updates["content"] = content
	}
	if input.Type != "" {
		if !types.IsValidAnnouncementType(input.Type) {
			return nil, fmt.Errorf("%w: invalid announcement type %q", ErrValidation, input.Type)
		}
		updates["type"] = input.Type
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.PublishAt != nil {
		updates["publish_at"] = *input.PublishAt
	}
	if input.ExpiresAt != nil {
		updates["expires_at"] = *input.ExpiresAt
	}
	if err := s.announcementRepo.Update(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return s.announcementRepo.GetByID(ctx, nil, id)
}

func (s *announcementService) Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error {
	announcement, err := s.announcementRepo.GetByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: announcement", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := s.canEdit(rc, announcement); err != nil {
		return err
	}
	return s.announcementRepo.Delete(ctx, nil, id)
}
