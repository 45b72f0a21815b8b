package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/jobs/worker"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/openai"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/speech"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
	"github.com/kenshuhub/kenshuhub-backend/internal/storage"
)

type Services struct {
	Auth          services.AuthService
	Access        services.AccessService
	User          services.UserService
	Industry      services.IndustryService
	Tenant        services.TenantService
	Category      services.CategoryService
	Catalog       services.CatalogService
	Video         services.VideoService
	Progress      services.ProgressService
	Chat          services.ChatService
	QA            services.QAService
	Announcement  services.AnnouncementService
	Analytics     services.AnalyticsService
	Knowledge     services.KnowledgeService
	Transcription services.TranscriptionService

	Store     storage.Store
	AI        openai.Client
	Speech    speech.Provider
	JobWorker *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	store, err := storage.New(log, storage.Config{
		Mode:      cfg.StorageMode,
		LocalDir:  cfg.StorageDir,
		GCSBucket: cfg.GCSBucket,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init storage: %w", err)
	}

	ai, err := openai.NewClient(log)
	if err != nil {
		log.Warn("AI client unavailable, chat assistant degraded", "error", err)
		ai = openai.NewUnavailableClient()
	}

	provider, err := speech.New(log)
	if err != nil {
		return Services{}, fmt.Errorf("init speech provider: %w", err)
	}

	logoService, err := services.NewLogoService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init logo service: %w", err)
	}

	auth := services.NewAuthService(db, r.User, cfg.JWTSecretKey, cfg.TokenTTL, log)
	access := services.NewAccessService(r.Category, log)
	industry := services.NewIndustryService(r.Industry, log)
	tenant := services.NewTenantService(db, r.Tenant, r.Department, r.User, logoService, log)
	user := services.NewUserService(db, r.User, r.Industry, r.Tenant, r.Department, r.Progress, r.ChatHistory, log)
	category := services.NewCategoryService(db, r.Category, r.Video, log)
	catalog := services.NewCatalogService(r.Category, r.Video, r.Progress, access, log)
	video := services.NewVideoService(db, r.Video, r.VideoTranscript, r.Progress, r.TranscriptionJob, catalog, store, log)
	progress := services.NewProgressService(r.Progress, r.Video, catalog, log)
	chat := services.NewChatService(r.Video, r.VideoTranscript, r.Usecase, r.Knowledge, r.ChatHistory, r.Category, access, ai, log)
	qa := services.NewQAService(r.Question, r.User, catalog, log)
	announcement := services.NewAnnouncementService(r.Announcement, log)
	analytics := services.NewAnalyticsService(db, r.User, r.Video, r.Progress, r.AccessLog, r.Question, r.Tenant, r.Department, log)
	knowledge := services.NewKnowledgeService(db, r.Knowledge, log)
	transcription := services.NewTranscriptionService(db, r.Video, r.VideoTranscript, r.TranscriptionJob, store, provider, log)

	jobWorker := worker.NewWorker(db, log, r.TranscriptionJob, transcription)

	return Services{
		Auth:          auth,
		Access:        access,
		User:          user,
		Industry:      industry,
		Tenant:        tenant,
		Category:      category,
		Catalog:       catalog,
		Video:         video,
		Progress:      progress,
		Chat:          chat,
		QA:            qa,
		Announcement:  announcement,
		Analytics:     analytics,
		Knowledge:     knowledge,
		Transcription: transcription,
		Store:         store,
		AI:            ai,
		Speech:        provider,
		JobWorker:     jobWorker,
	}, nil
}
