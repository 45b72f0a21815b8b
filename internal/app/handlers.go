package app

import (
	"gorm.io/gorm"

	httpx "github.com/kenshuhub/kenshuhub-backend/internal/http"
	"github.com/kenshuhub/kenshuhub-backend/internal/http/handlers"
	"github.com/kenshuhub/kenshuhub-backend/internal/http/middleware"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

func wireRouterConfig(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, s Services) httpx.RouterConfig {
	log.Info("Wiring handlers...")
	return httpx.RouterConfig{
		ServiceName:   cfg.ServiceName,
		Log:           log,
		AccessLogRepo: r.AccessLog,

		AuthMiddleware: middleware.NewAuthMiddleware(log, s.Auth),

		AuthHandler:          handlers.NewAuthHandler(s.Auth, s.User),
		CatalogHandler:       handlers.NewCatalogHandler(s.Catalog),
		VideoHandler:         handlers.NewVideoHandler(s.Video),
		ProgressHandler:      handlers.NewProgressHandler(s.Progress),
		ChatHandler:          handlers.NewChatHandler(s.Chat),
		QAHandler:            handlers.NewQAHandler(s.QA),
		AnnouncementHandler:  handlers.NewAnnouncementHandler(s.Announcement),
		UserHandler:          handlers.NewUserHandler(s.User),
		IndustryHandler:      handlers.NewIndustryHandler(s.Industry),
		TenantHandler:        handlers.NewTenantHandler(s.Tenant),
		CategoryHandler:      handlers.NewCategoryHandler(s.Category),
		AnalyticsHandler:     handlers.NewAnalyticsHandler(s.Analytics),
		KnowledgeHandler:     handlers.NewKnowledgeHandler(s.Knowledge),
		TranscriptionHandler: handlers.NewTranscriptionHandler(s.Transcription),
		HealthHandler:        handlers.NewHealthHandler(db),
	}
}
