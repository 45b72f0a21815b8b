package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type ProgressInput struct {
	VideoID         uuid.UUID `json:"video_id"`
	ProgressPercent float64   `json:"progress_percent"`
	LastPosition    float64   `json:"last_position"`
}

type ProgressService interface {
	Record(ctx context.Context, rc *ctxutil.RequestContext, input ProgressInput) (*types.Progress, error)
	MyProgress(ctx context.Context, rc *ctxutil.RequestContext) ([]*VideoWithProgress, error)
}

type progressService struct {
	progressRepo repos.ProgressRepo
	videoRepo    repos.VideoRepo
	catalog      CatalogService
	log          *logger.Logger
}

func NewProgressService(progressRepo repos.ProgressRepo, videoRepo repos.VideoRepo, catalog CatalogService, baseLog *logger.Logger) ProgressService {
	serviceLog := baseLog.With("service", "ProgressService")
	return &progressService{
		progressRepo: progressRepo,
		videoRepo:    videoRepo,
		catalog:      catalog,
		log:          serviceLog,
	}
}

// Record upserts the caller's position on a video. One row per user/video
// pair; replays simply move the row.
func (s *progressService) Record(ctx context.Context, rc *ctxutil.RequestContext, input ProgressInput) (*types.Progress, error) {
	if input.VideoID == uuid.Nil {
		return nil, fmt.Errorf("%w: video_id is required", ErrValidation)
	}
	if input.ProgressPercent < 0 || input.ProgressPercent > 100 {
		return nil, fmt.Errorf("%w: progress_percent must be between 0 and 100", ErrValidation)
	}
	if input.LastPosition < 0 {
		return nil, fmt.Errorf("%w: last_position must not be negative", ErrValidation)
	}
	if _, err := s.catalog.VisibleVideo(ctx, rc, input.VideoID); err != nil {
		return nil, err
	}

	progress := &types.Progress{
		UserID:          rc.UserID,
		VideoID:         input.VideoID,
		ProgressPercent: input.ProgressPercent,
		LastPosition:    input.LastPosition,
	}
	if err := s.progressRepo.Upsert(ctx, nil, progress); err != nil {
		return nil, err
	}
	return s.progressRepo.GetByUserAndVideo(ctx, nil, rc.UserID, input.VideoID)
}

func (s *progressService) MyProgress(ctx context.Context, rc *ctxutil.RequestContext) ([]*VideoWithProgress, error) {
	rows, err := s.progressRepo.ListByUser(ctx, nil, rc.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]*VideoWithProgress, 0, len(rows))
	for _, p := range rows {
		video, err := s.videoRepo.GetByID(ctx, nil, p.VideoID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, &VideoWithProgress{
			Video:           video,
			ProgressPercent: p.ProgressPercent,
			LastPosition:    p.LastPosition,
		})
	}
	return out, nil
}
