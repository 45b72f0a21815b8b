package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/envutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

// Worker drains the transcription queue. Each loop claims one job under
// SKIP LOCKED, so any number of processes can run the same loop without
// double-processing.
type Worker struct {
	db            *gorm.DB
	log           *logger.Logger
	jobRepo       repos.TranscriptionJobRepo
	transcription services.TranscriptionService

	pollInterval time.Duration
	maxAttempts  int
	retryDelay   time.Duration
	staleRunning time.Duration

	wg sync.WaitGroup
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, jobRepo repos.TranscriptionJobRepo, transcription services.TranscriptionService) *Worker {
	return &Worker{
		db:            db,
		log:           baseLog.With("component", "TranscriptionWorker"),
		jobRepo:       jobRepo,
		transcription: transcription,
		pollInterval:  envutil.Duration("WORKER_POLL_INTERVAL", 2*time.Second),
		maxAttempts:   envutil.Int("WORKER_MAX_ATTEMPTS", 3),
		retryDelay:    envutil.Duration("WORKER_RETRY_DELAY", 30*time.Second),
		staleRunning:  envutil.Duration("WORKER_STALE_RUNNING", 15*time.Minute),
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 2)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting transcription worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(ctx, workerID)
		}()
	}
}

// Wait blocks until every loop has observed context cancellation and returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			job, err := w.jobRepo.ClaimNextRunnable(ctx, w.db, w.maxAttempts, w.retryDelay, w.staleRunning)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.process(ctx, workerID, job)
		}
	}
}

func (w *Worker) process(ctx context.Context, workerID int, job *types.TranscriptionJob) {
	w.log.Info("Processing transcription job",
		"worker_id", workerID,
		"job_id", job.ID,
		"video_id", job.VideoID,
		"attempt", job.Attempts+1,
	)

	// Heartbeat while the job runs so a crash here lets another worker
	// reclaim it after staleRunning.
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go w.heartbeatLoop(hbCtx, job)

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Transcription handler panic",
				"worker_id", workerID,
				"job_id", job.ID,
				"panic", r,
			)
			w.markFailed(ctx, job, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := w.transcription.ProcessJob(ctx, job); err != nil {
		// ProcessJob records the failure itself; nothing left to persist.
		w.log.Warn("Transcription job failed", "worker_id", workerID, "job_id", job.ID, "error", err)
	}
}

func (w *Worker) heartbeatLoop(ctx context.Context, job *types.TranscriptionJob) {
	interval := w.staleRunning / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.jobRepo.Heartbeat(ctx, nil, job.ID); err != nil {
				w.log.Warn("Heartbeat failed", "job_id", job.ID, "error", err)
			}
		}
	}
}

func (w *Worker) markFailed(ctx context.Context, job *types.TranscriptionJob, cause error) {
	now := time.Now()
	err := w.jobRepo.UpdateFields(ctx, nil, job.ID, map[string]interface{}{
		"status":        types.TranscriptionJobFailed,
		"last_error":    cause.Error(),
		"last_error_at": now,
	})
	if err != nil {
		w.log.Error("Could not mark job failed", "job_id", job.ID, "error", err)
	}
}
