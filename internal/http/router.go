package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/kenshuhub/kenshuhub-backend/internal/http/handlers"
	httpMW "github.com/kenshuhub/kenshuhub-backend/internal/http/middleware"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

type RouterConfig struct {
	ServiceName   string
	Log           *logger.Logger
	AccessLogRepo repos.AccessLogRepo

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler          *httpH.AuthHandler
	CatalogHandler       *httpH.CatalogHandler
	VideoHandler         *httpH.VideoHandler
	ProgressHandler      *httpH.ProgressHandler
	ChatHandler          *httpH.ChatHandler
	QAHandler            *httpH.QAHandler
	AnnouncementHandler  *httpH.AnnouncementHandler
	UserHandler          *httpH.UserHandler
	IndustryHandler      *httpH.IndustryHandler
	TenantHandler        *httpH.TenantHandler
	CategoryHandler      *httpH.CategoryHandler
	AnalyticsHandler     *httpH.AnalyticsHandler
	KnowledgeHandler     *httpH.KnowledgeHandler
	TranscriptionHandler *httpH.TranscriptionHandler
	HealthHandler        *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log, cfg.AccessLogRepo))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/login", cfg.AuthHandler.Login)
		}
		if cfg.IndustryHandler != nil {
			// Public so the login screen can render the industry picker.
			api.GET("/industries", cfg.IndustryHandler.List)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/me", cfg.AuthHandler.Me)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		if cfg.CatalogHandler != nil {
			protected.GET("/catalog", cfg.CatalogHandler.Catalog)
			protected.GET("/catalog/:id", cfg.CatalogHandler.CategoryDetail)
			protected.GET("/categories", cfg.CatalogHandler.Categories)
			protected.GET("/dashboard", cfg.CatalogHandler.Dashboard)
		}

		if cfg.VideoHandler != nil {
			protected.GET("/videos/:id/stream", cfg.VideoHandler.Stream)
			protected.GET("/videos/:id/transcripts", cfg.VideoHandler.Transcripts)
		}

		if cfg.ProgressHandler != nil {
			protected.POST("/progress", cfg.ProgressHandler.Record)
			protected.GET("/my-progress", cfg.ProgressHandler.MyProgress)
		}

		if cfg.ChatHandler != nil {
			protected.POST("/chat", cfg.ChatHandler.Chat)
			protected.GET("/chat/suggestions", cfg.ChatHandler.Suggestions)
			protected.GET("/chat/history", cfg.ChatHandler.History)
		}

		if cfg.QAHandler != nil {
			protected.GET("/videos/:id/questions", cfg.QAHandler.ListQuestions)
			protected.POST("/videos/:id/questions", cfg.QAHandler.AskQuestion)
			protected.PUT("/questions/:id", cfg.QAHandler.UpdateQuestion)
			protected.DELETE("/questions/:id", cfg.QAHandler.DeleteQuestion)
			protected.POST("/questions/:id/answers", cfg.QAHandler.AnswerQuestion)
			protected.PUT("/answers/:id", cfg.QAHandler.UpdateAnswer)
			protected.DELETE("/answers/:id", cfg.QAHandler.DeleteAnswer)
			protected.GET("/my-questions", cfg.QAHandler.MyQuestions)
		}

		if cfg.AnnouncementHandler != nil {
			protected.GET("/announcements", cfg.AnnouncementHandler.Visible)
		}
	}

	// Manager routes: company_admin within its tenant, super_admin anywhere.
	manager := protected.Group("/admin")
	{
		if cfg.AuthMiddleware != nil {
			manager.Use(cfg.AuthMiddleware.RequireManager())
		}

		if cfg.UserHandler != nil {
			manager.GET("/users", cfg.UserHandler.List)
			manager.GET("/users/:id", cfg.UserHandler.Get)
			manager.POST("/users", cfg.UserHandler.Create)
			manager.PUT("/users/:id", cfg.UserHandler.Update)
			manager.DELETE("/users/:id", cfg.UserHandler.Delete)
			// CSV endpoints sit at the group root so they cannot collide
			// with the :id parameter.
			manager.POST("/import-csv", cfg.UserHandler.ImportCSV)
			manager.GET("/export-csv", cfg.UserHandler.ExportCSV)
		}

		if cfg.TenantHandler != nil {
			manager.GET("/tenants", cfg.TenantHandler.List)
			manager.GET("/tenants/:id", cfg.TenantHandler.Get)
			manager.GET("/tenants/:id/departments", cfg.TenantHandler.ListDepartments)
			manager.GET("/tenants/:id/department-stats", cfg.TenantHandler.DepartmentStats)
			manager.POST("/tenants/:id/departments", cfg.TenantHandler.CreateDepartment)
			manager.DELETE("/departments/:departmentID", cfg.TenantHandler.DeleteDepartment)
			manager.GET("/tenant-health", cfg.TenantHandler.Health)
		}

		if cfg.AnnouncementHandler != nil {
			manager.GET("/announcements", cfg.AnnouncementHandler.ListAll)
			manager.POST("/announcements", cfg.AnnouncementHandler.Create)
			manager.PUT("/announcements/:id", cfg.AnnouncementHandler.Update)
			manager.DELETE("/announcements/:id", cfg.AnnouncementHandler.Delete)
		}

		if cfg.AnalyticsHandler != nil {
			manager.GET("/analytics/summary", cfg.AnalyticsHandler.Summary)
			manager.GET("/analytics/access-logs", cfg.AnalyticsHandler.AccessLogs)
			manager.GET("/video-analytics/summary", cfg.AnalyticsHandler.VideoAnalytics)
			manager.GET("/user-progress", cfg.AnalyticsHandler.UserProgress)
			manager.GET("/qa-analytics/summary", cfg.AnalyticsHandler.QAAnalytics)
		}
	}

	super := protected.Group("/admin")
	{
		if cfg.AuthMiddleware != nil {
			super.Use(cfg.AuthMiddleware.RequireSuperAdmin())
		}

		if cfg.IndustryHandler != nil {
			super.POST("/industries", cfg.IndustryHandler.Create)
			super.PUT("/industries/:id", cfg.IndustryHandler.Update)
			super.DELETE("/industries/:id", cfg.IndustryHandler.Delete)
		}

		if cfg.TenantHandler != nil {
			super.POST("/tenants", cfg.TenantHandler.Create)
			super.PUT("/tenants/:id", cfg.TenantHandler.Update)
			super.DELETE("/tenants/:id", cfg.TenantHandler.Delete)
		}

		if cfg.CategoryHandler != nil {
			super.GET("/categories", cfg.CategoryHandler.ListAll)
			super.POST("/categories", cfg.CategoryHandler.Create)
			super.PUT("/categories/:id", cfg.CategoryHandler.Update)
			super.DELETE("/categories/:id", cfg.CategoryHandler.Delete)
			super.GET("/categories/:id/access", cfg.CategoryHandler.IndustryAccess)
			super.PUT("/categories/:id/access", cfg.CategoryHandler.SetIndustryAccess)
		}

		if cfg.VideoHandler != nil {
			super.GET("/videos", cfg.VideoHandler.List)
			super.POST("/videos", cfg.VideoHandler.Upload)
			super.PUT("/videos/:id", cfg.VideoHandler.Update)
			super.DELETE("/videos/:id", cfg.VideoHandler.Delete)
		}

		if cfg.TranscriptionHandler != nil {
			super.POST("/videos/:id/transcribe", cfg.TranscriptionHandler.Enqueue)
			super.GET("/videos/:id/transcription", cfg.TranscriptionHandler.Status)
		}

		if cfg.KnowledgeHandler != nil {
			super.GET("/knowledge", cfg.KnowledgeHandler.List)
			super.POST("/knowledge", cfg.KnowledgeHandler.Ingest)
			super.DELETE("/knowledge", cfg.KnowledgeHandler.Remove)
		}
	}

	return r
}
