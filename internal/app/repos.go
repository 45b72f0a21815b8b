package app

import (
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
)

type Repos struct {
	User             repos.UserRepo
	Industry         repos.IndustryRepo
	Tenant           repos.TenantRepo
	Department       repos.DepartmentRepo
	Category         repos.CategoryRepo
	Video            repos.VideoRepo
	VideoTranscript  repos.VideoTranscriptRepo
	Progress         repos.ProgressRepo
	Question         repos.QuestionRepo
	Announcement     repos.AnnouncementRepo
	Usecase          repos.UsecaseRepo
	Knowledge        repos.KnowledgeRepo
	ChatHistory      repos.ChatHistoryRepo
	AccessLog        repos.AccessLogRepo
	TranscriptionJob repos.TranscriptionJobRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		Industry:         repos.NewIndustryRepo(db, log),
		Tenant:           repos.NewTenantRepo(db, log),
		Department:       repos.NewDepartmentRepo(db, log),
		Category:         repos.NewCategoryRepo(db, log),
		Video:            repos.NewVideoRepo(db, log),
		VideoTranscript:  repos.NewVideoTranscriptRepo(db, log),
		Progress:         repos.NewProgressRepo(db, log),
		Question:         repos.NewQuestionRepo(db, log),
		Announcement:     repos.NewAnnouncementRepo(db, log),
		Usecase:          repos.NewUsecaseRepo(db, log),
		Knowledge:        repos.NewKnowledgeRepo(db, log),
		ChatHistory:      repos.NewChatHistoryRepo(db, log),
		AccessLog:        repos.NewAccessLogRepo(db, log),
		TranscriptionJob: repos.NewTranscriptionJobRepo(db, log),
	}
}
