package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/speech"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/storage"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type TranscriptionStatus struct {
	VideoID  uuid.UUID  `json:"video_id"`
	Status   string     `json:"status"`
	Attempts int        `json:"attempts"`
	Error    string     `json:"error,omitempty"`
	ErrorAt  *time.Time `json:"error_at,omitempty"`
}

// TranscriptionService owns the async transcription pipeline: admins enqueue
// work, the worker drains it through ProcessJob.
type TranscriptionService interface {
	Enqueue(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID) (*types.TranscriptionJob, error)
	Status(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID) (*TranscriptionStatus, error)
	ProcessJob(ctx context.Context, job *types.TranscriptionJob) error
}

type transcriptionService struct {
	db             *gorm.DB
	videoRepo      repos.VideoRepo
	transcriptRepo repos.VideoTranscriptRepo
	jobRepo        repos.TranscriptionJobRepo
	store          storage.Store
	provider       speech.Provider
	log            *logger.Logger
}

func NewTranscriptionService(
	db *gorm.DB,
	videoRepo repos.VideoRepo,
	transcriptRepo repos.VideoTranscriptRepo,
	jobRepo repos.TranscriptionJobRepo,
	store storage.Store,
	provider speech.Provider,
	baseLog *logger.Logger,
) TranscriptionService {
	serviceLog := baseLog.With("service", "TranscriptionService")
	return &transcriptionService{
		db:             db,
		videoRepo:      videoRepo,
		transcriptRepo: transcriptRepo,
		jobRepo:        jobRepo,
		store:          store,
		provider:       provider,
		log:            serviceLog,
	}
}

func (s *transcriptionService) Enqueue(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID) (*types.TranscriptionJob, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	if _, err := s.videoRepo.GetByID(ctx, nil, videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: video", ErrNotFound)
		}
		return nil, err
	}
	pending, err := s.jobRepo.HasPending(ctx, nil, videoID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: transcription already in progress", ErrConflict)
	}

	job := &types.TranscriptionJob{VideoID: videoID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.jobRepo.Enqueue(ctx, tx, job); err != nil {
			return err
		}
		return s.videoRepo.Update(ctx, tx, videoID, map[string]interface{}{
			"transcription_status": types.TranscriptionPending,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Transcription enqueued", "video_id", videoID)
	return job, nil
}

func (s *transcriptionService) Status(ctx context.Context, rc *ctxutil.RequestContext, videoID uuid.UUID) (*TranscriptionStatus, error) {
	if !rc.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: super_admin access required", ErrForbidden)
	}
	video, err := s.videoRepo.GetByID(ctx, nil, videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: video", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	status := &TranscriptionStatus{VideoID: videoID, Status: video.TranscriptionStatus}
	job, err := s.jobRepo.GetLatestByVideo(ctx, nil, videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, err
	}
	status.Attempts = job.Attempts
	status.Error = job.LastError
	status.ErrorAt = job.LastErrorAt
	return status, nil
}

// ProcessJob runs one claimed job to completion. The caller owns claiming and
// heartbeats; this method only transcribes and records the outcome. Fresh
// segments replace any earlier automatic transcript so a re-run never
// duplicates rows.
func (s *transcriptionService) ProcessJob(ctx context.Context, job *types.TranscriptionJob) error {
	video, err := s.videoRepo.GetByID(ctx, nil, job.VideoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The video was deleted while the job sat in the queue.
		return s.finishJob(ctx, job, nil, fmt.Errorf("video %s no longer exists", job.VideoID))
	}
	if err != nil {
		return err
	}

	if uErr := s.videoRepo.Update(ctx, nil, video.ID, map[string]interface{}{
		"transcription_status": types.TranscriptionProcessing,
	}); uErr != nil {
		return uErr
	}

	segments, tErr := s.transcribe(ctx, video)
	return s.finishJob(ctx, job, segments, tErr)
}

func (s *transcriptionService) transcribe(ctx context.Context, video *types.Video) ([]speech.Segment, error) {
	rd, err := s.store.Open(ctx, video.Filename)
	if err != nil {
		return nil, fmt.Errorf("open media %s: %w", video.Filename, err)
	}
	defer rd.Close()
	return s.provider.Transcribe(ctx, rd, video.Filename)
}

func (s *transcriptionService) finishJob(ctx context.Context, job *types.TranscriptionJob, segments []speech.Segment, cause error) error {
	now := time.Now()
	if cause != nil {
		s.log.Warn("Transcription failed", "video_id", job.VideoID, "attempts", job.Attempts, "error", cause)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.jobRepo.UpdateFields(ctx, tx, job.ID, map[string]interface{}{
				"status":        types.TranscriptionJobFailed,
				"last_error":    cause.Error(),
				"last_error_at": now,
			}); err != nil {
				return err
			}
			// Best effort; the video may already be gone.
			return s.videoRepo.Update(ctx, tx, job.VideoID, map[string]interface{}{
				"transcription_status": types.TranscriptionFailed,
			})
		})
		if err != nil {
			return err
		}
		return cause
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.transcriptRepo.DeleteByVideoAndType(ctx, tx, job.VideoID, "auto"); err != nil {
			return err
		}
		for _, seg := range segments {
			start := seg.Start
			end := seg.End
			row := &types.VideoTranscript{
				VideoID:        job.VideoID,
				Content:        seg.Text,
				ContentType:    "auto",
				TimestampStart: &start,
				TimestampEnd:   &end,
			}
			if err := s.transcriptRepo.Create(ctx, tx, row); err != nil {
				return err
			}
		}
		if err := s.videoRepo.Update(ctx, tx, job.VideoID, map[string]interface{}{
			"transcription_status": types.TranscriptionCompleted,
		}); err != nil {
			return err
		}
		return s.jobRepo.UpdateFields(ctx, tx, job.ID, map[string]interface{}{
			"status": types.TranscriptionJobCompleted,
		})
	})
	if err != nil {
		return err
	}
	s.log.Info("Transcription completed", "video_id", job.VideoID, "segments", len(segments))
	return nil
}
