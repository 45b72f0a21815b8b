package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/slugutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/storage"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type UploadVideoInput struct {
	Title       string
	Description string
	Summary     string
	CategoryID  *uuid.UUID
	Transcribe  bool
}

type UpdateVideoInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Summary     *string    `json:"summary"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

type VideoService interface {
	Upload(ctx context.Context, rc *ctxutil.RequestContext, input UploadVideoInput, file *multipart.FileHeader) (*types.Video, error)
	Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input UpdateVideoInput) (*types.Video, error)
	Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error
	List(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Video, error)
	OpenStream(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) (io.ReadCloser, *types.Video, error)
	Transcripts(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) ([]*types.VideoTranscript, error)
}

type videoService struct {
	db             *gorm.DB
	videoRepo      repos.VideoRepo
	transcriptRepo repos.VideoTranscriptRepo
	progressRepo   repos.ProgressRepo
	jobRepo        repos.TranscriptionJobRepo
	catalog        CatalogService
	store          storage.Store
	log            *logger.Logger
}

func NewVideoService(
	db *gorm.DB,
	videoRepo repos.VideoRepo,
	transcriptRepo repos.VideoTranscriptRepo,
	progressRepo repos.ProgressRepo,
	jobRepo repos.TranscriptionJobRepo,
	catalog CatalogService,
	store storage.Store,
	baseLog *logger.Logger,
) VideoService {
	serviceLog := baseLog.With("service", "VideoService")
	return &videoService{
		db:             db,
		videoRepo:      videoRepo,
		transcriptRepo: transcriptRepo,
		progressRepo:   progressRepo,
		jobRepo:        jobRepo,
		catalog:        catalog,
		store:          store,
		log:            serviceLog,
	}
}

func (s *videoService) uniqueSlug(ctx context.Context, tx *gorm.DB, title string) (string, error) {
	base := slugutil.Make(title)
	slug := base
	for n := 2; ; n++ {
		taken, err := s.videoRepo.SlugExists(ctx, tx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *videoService) Upload(ctx context.Context, rc *ctxutil.RequestContext, input UploadVideoInput, file *multipart.FileHeader) (*types.Video, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if file == nil {
		return nil, fmt.Errorf("%w: video file is required", ErrValidation)
	}
	if !storage.AllowedExtension(file.Filename) {
		return nil, fmt.Errorf("%w: unsupported file type", ErrValidation)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable upload", ErrValidation)
	}
	defer src.Close()

	filename := storage.UploadFilename(file.Filename, time.Now())
	if err := s.store.Save(ctx, filename, src); err != nil {
		return nil, fmt.Errorf("store video file: %w", err)
	}

	var video *types.Video
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := s.uniqueSlug(ctx, tx, input.Title)
		if err != nil {
			return err
		}
		uploadedBy := rc.UserID
		video = &types.Video{
			Title:       input.Title,
			Slug:        slug,
			Description: input.Description,
			Summary:     input.Summary,
			Filename:    filename,
			CategoryID:  input.CategoryID,
			UploadedBy:  &uploadedBy,
		}
		if input.Transcribe {
			video.TranscriptionStatus = types.TranscriptionPending
		}
		if err := s.videoRepo.Create(ctx, tx, video); err != nil {
			return err
		}
		// Description doubles as searchable text until a transcript lands.
		if input.Description != "" {
			transcript := &types.VideoTranscript{
				VideoID:     video.ID,
				Content:     input.Description,
				ContentType: "description",
			}
			if err := s.transcriptRepo.Create(ctx, tx, transcript); err != nil {
				return err
			}
		}
		if input.Transcribe {
			job := &types.TranscriptionJob{VideoID: video.ID}
			if err := s.jobRepo.Enqueue(ctx, tx, job); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// The DB row failed, so the stored file would be orphaned.
		if delErr := s.store.Delete(ctx, filename); delErr != nil {
			s.log.Warn("Could not remove orphaned upload", "filename", filename, "error", delErr)
		}
		return nil, err
	}

	s.log.Info("Video uploaded", "title", video.Title, "filename", filename, "transcribe", input.Transcribe)
	return video, nil
}

func (s *videoService) Update(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID, input UpdateVideoInput) (*types.Video, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.videoRepo.GetByID(ctx, nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: video", ErrNotFound)
		}
		return nil, err
	}
	updates := map[string]interface{}{}
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Summary != nil {
		updates["summary"] = *input.Summary
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if err := s.videoRepo.Update(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return s.videoRepo.GetByID(ctx, nil, id)
}

// Delete removes the video row together with its transcripts, progress rows
// and queued transcription jobs, then the stored file. The file goes last; a
// dangling file is recoverable, a dangling row is not.
func (s *videoService) Delete(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) error {
	if !rc.IsSuperAdmin() {
		return fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	video, err := s.videoRepo.GetByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: video", ErrNotFound)
	}
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.transcriptRepo.DeleteByVideo(ctx, tx, id); err != nil {
			return err
		}
		if err := s.progressRepo.DeleteByVideo(ctx, tx, id); err != nil {
			return err
		}
		if err := s.jobRepo.DeleteByVideo(ctx, tx, id); err != nil {
			return err
		}
		return s.videoRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	if video.Filename != "" {
		if err := s.store.Delete(ctx, video.Filename); err != nil {
			s.log.Warn("Could not delete video file", "filename", video.Filename, "error", err)
		}
	}
	s.log.Info("Video deleted", "title", video.Title)
	return nil
}

func (s *videoService) List(ctx context.Context, rc *ctxutil.RequestContext) ([]*types.Video, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	return s.videoRepo.List(ctx, nil)
}

func (s *videoService) OpenStream(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) (io.ReadCloser, *types.Video, error) {
	video, err := s.catalog.VisibleVideo(ctx, rc, id)
	if err != nil {
		return nil, nil, err
	}
	if video.Filename == "" {
		return nil, nil, fmt.Errorf("%w: video file", ErrNotFound)
	}
	rd, err := s.store.Open(ctx, video.Filename)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: video file", ErrNotFound)
	}
	return rd, video, nil
}

func (s *videoService) Transcripts(ctx context.Context, rc *ctxutil.RequestContext, id uuid.UUID) ([]*types.VideoTranscript, error) {
	if _, err := s.catalog.VisibleVideo(ctx, rc, id); err != nil {
		return nil, err
	}
	return s.transcriptRepo.ListByVideo(ctx, nil, id)
}
