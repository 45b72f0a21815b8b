package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

type VideoStats struct {
	VideoID     uuid.UUID `json:"video_id"`
	Title       string    `json:"title"`
	Viewers     int64     `json:"viewers"`
	Completed   int64     `json:"completed"`
	AvgProgress float64   `json:"avg_progress"`
}

type AnalyticsSummary struct {
	TotalUsers    int64             `json:"total_users"`
	TotalVideos   int64             `json:"total_videos"`
	ActiveUsers7d int64             `json:"active_users_7d"`
	Requests24h   int64             `json:"requests_24h"`
	VideoStats    []VideoStats      `json:"video_stats"`
	PopularPaths  []repos.PathCount `json:"popular_paths"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

type VideoAnalyticsReport struct {
	Videos      []VideoStats `json:"videos"`
	GeneratedAt time.Time    `json:"generated_at"`
}

type UserProgressRow struct {
	UserID        uuid.UUID  `json:"user_id"`
	Username      string     `json:"username"`
	Department    string     `json:"department"`
	VideosStarted int64      `json:"videos_started"`
	Completed     int64      `json:"completed"`
	AvgProgress   float64    `json:"avg_progress"`
	LastActivity  *time.Time `json:"last_activity"`
}

type UserProgressReport struct {
	Users       []UserProgressRow `json:"users"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type TenantQAStats struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	TenantName string    `json:"tenant_name"`
	Questions  int64     `json:"questions"`
	Answered   int64     `json:"answered"`
}

type QAAnalyticsReport struct {
	TotalQuestions    int64           `json:"total_questions"`
	TotalAnswers      int64           `json:"total_answers"`
	AnsweredQuestions int64           `json:"answered_questions"`
	AnswerRate        float64         `json:"answer_rate"`
	PerTenant         []TenantQAStats `json:"per_tenant,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

type AnalyticsService interface {
	Summary(ctx context.Context, rc *ctxutil.RequestContext) (*AnalyticsSummary, error)
	VideoAnalytics(ctx context.Context, rc *ctxutil.RequestContext, days int) (*VideoAnalyticsReport, error)
	UserProgress(ctx context.Context, rc *ctxutil.RequestContext, days int) (*UserProgressReport, error)
	QAAnalytics(ctx context.Context, rc *ctxutil.RequestContext, days int) (*QAAnalyticsReport, error)
	AccessLogs(ctx context.Context, rc *ctxutil.RequestContext, filter repos.AccessLogFilter) ([]*types.AccessLog, error)
}

type analyticsService struct {
	db             *gorm.DB
	userRepo       repos.UserRepo
	videoRepo      repos.VideoRepo
	progressRepo   repos.ProgressRepo
	accessLogRepo  repos.AccessLogRepo
	questionRepo   repos.QuestionRepo
	tenantRepo     repos.TenantRepo
	departmentRepo repos.DepartmentRepo
	log            *logger.Logger
}

func NewAnalyticsService(
	db *gorm.DB,
	userRepo repos.UserRepo,
	videoRepo repos.VideoRepo,
	progressRepo repos.ProgressRepo,
	accessLogRepo repos.AccessLogRepo,
	questionRepo repos.QuestionRepo,
	tenantRepo repos.TenantRepo,
	departmentRepo repos.DepartmentRepo,
	baseLog *logger.Logger,
) AnalyticsService {
	serviceLog := baseLog.With("service", "AnalyticsService")
	return &analyticsService{
		db:             db,
		userRepo:       userRepo,
		videoRepo:      videoRepo,
		progressRepo:   progressRepo,
		accessLogRepo:  accessLogRepo,
		questionRepo:   questionRepo,
		tenantRepo:     tenantRepo,
		departmentRepo: departmentRepo,
		log:            serviceLog,
	}
}

// windowStart turns a day count into the aggregation cutoff; zero or
// negative means no window.
func windowStart(days int) *time.Time {
	if days <= 0 {
		return nil
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return &since
}

// Summary gathers the dashboard aggregates concurrently. Company admins get
// numbers for their own tenant's population; super admins see everything.
func (s *analyticsService) Summary(ctx context.Context, rc *ctxutil.RequestContext) (*AnalyticsSummary, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}

	userIDs, users, err := s.tenantPopulation(ctx, rc)
	if err != nil {
		return nil, err
	}
	var tenantFilter *uuid.UUID
	if !rc.IsSuperAdmin() {
		tenantFilter = rc.TenantID
	}

	summary := &AnalyticsSummary{
		TotalUsers:  int64(len(users)),
		GeneratedAt: time.Now().UTC(),
	}
	now := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.videoRepo.Count(gctx, nil)
		if err != nil {
			return err
		}
		summary.TotalVideos = count
		return nil
	})
	g.Go(func() error {
		count, err := s.accessLogRepo.ActiveUserCountSince(gctx, nil, now.AddDate(0, 0, -7), tenantFilter)
		if err != nil {
			return err
		}
		summary.ActiveUsers7d = count
		return nil
	})
	g.Go(func() error {
		count, err := s.accessLogRepo.CountSince(gctx, nil, now.Add(-24*time.Hour), tenantFilter)
		if err != nil {
			return err
		}
		summary.Requests24h = count
		return nil
	})
	g.Go(func() error {
		paths, err := s.accessLogRepo.PathCountsSince(gctx, nil, now.AddDate(0, 0, -7), tenantFilter, 10)
		if err != nil {
			return err
		}
		summary.PopularPaths = paths
		return nil
	})
	g.Go(func() error {
		completion, err := s.progressRepo.CompletionByVideo(gctx, nil, userIDs, nil)
		if err != nil {
			return err
		}
		stats, err := s.titleStats(gctx, completion)
		if err != nil {
			return err
		}
		summary.VideoStats = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if summary.VideoStats == nil {
		summary.VideoStats = []VideoStats{}
	}
	if summary.PopularPaths == nil {
		summary.PopularPaths = []repos.PathCount{}
	}
	return summary, nil
}

func (s *analyticsService) titleStats(ctx context.Context, completion []repos.VideoCompletion) ([]VideoStats, error) {
	ids := make([]uuid.UUID, 0, len(completion))
	for _, c := range completion {
		ids = append(ids, c.VideoID)
	}
	videos, err := s.videoRepo.ListByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	titles := make(map[uuid.UUID]string, len(videos))
	for _, v := range videos {
		titles[v.ID] = v.Title
	}
	stats := make([]VideoStats, 0, len(completion))
	for _, c := range completion {
		stats = append(stats, VideoStats{
			VideoID:     c.VideoID,
			Title:       titles[c.VideoID],
			Viewers:     c.Viewers,
			Completed:   c.Completed,
			AvgProgress: c.AvgProgress,
		})
	}
	return stats, nil
}

// tenantPopulation resolves the user ids an aggregate should cover: nil for
// super admins (everyone), the tenant's members for company admins.
func (s *analyticsService) tenantPopulation(ctx context.Context, rc *ctxutil.RequestContext) ([]uuid.UUID, []*types.User, error) {
	users, err := s.userRepo.List(ctx, nil, TenantScope(rc, "tenant_id", "id"))
	if err != nil {
		return nil, nil, err
	}
	var userIDs []uuid.UUID
	if !rc.IsSuperAdmin() {
		userIDs = make([]uuid.UUID, 0, len(users))
		for _, u := range users {
			userIDs = append(userIDs, u.ID)
		}
	}
	return userIDs, users, nil
}

func (s *analyticsService) VideoAnalytics(ctx context.Context, rc *ctxutil.RequestContext, days int) (*VideoAnalyticsReport, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	userIDs, _, err := s.tenantPopulation(ctx, rc)
	if err != nil {
		return nil, err
	}
	completion, err := s.progressRepo.CompletionByVideo(ctx, nil, userIDs, windowStart(days))
	if err != nil {
		return nil, err
	}
	stats, err := s.titleStats(ctx, completion)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []VideoStats{}
	}
	return &VideoAnalyticsReport{Videos: stats, GeneratedAt: time.Now().UTC()}, nil
}

// UserProgress reports every user in scope, including ones with no progress
// rows yet.
func (s *analyticsService) UserProgress(ctx context.Context, rc *ctxutil.RequestContext, days int) (*UserProgressReport, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	userIDs, users, err := s.tenantPopulation(ctx, rc)
	if err != nil {
		return nil, err
	}
	summaries, err := s.progressRepo.SummaryByUser(ctx, nil, userIDs, windowStart(days))
	if err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID]repos.UserProgressSummary, len(summaries))
	for _, sum := range summaries {
		byUser[sum.UserID] = sum
	}

	deptNames := map[uuid.UUID]string{}
	rows := make([]UserProgressRow, 0, len(users))
	for _, u := range users {
		row := UserProgressRow{UserID: u.ID, Username: u.Username}
		if u.DepartmentID != nil {
			name, ok := deptNames[*u.DepartmentID]
			if !ok {
				if dept, err := s.departmentRepo.GetByID(ctx, nil, *u.DepartmentID); err == nil {
					name = dept.Name
				}
				deptNames[*u.DepartmentID] = name
			}
			row.Department = name
		}
		if sum, ok := byUser[u.ID]; ok {
			row.VideosStarted = sum.VideosStarted
			row.Completed = sum.Completed
			row.AvgProgress = sum.AvgProgress
			row.LastActivity = sum.LastActivity
		}
		rows = append(rows, row)
	}
	return &UserProgressReport{Users: rows, GeneratedAt: time.Now().UTC()}, nil
}

func (s *analyticsService) QAAnalytics(ctx context.Context, rc *ctxutil.RequestContext, days int) (*QAAnalyticsReport, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	since := windowStart(days)
	var tenantFilter *uuid.UUID
	if !rc.IsSuperAdmin() {
		tenantFilter = rc.TenantID
	}
	counts, err := s.questionRepo.Counts(ctx, nil, since, tenantFilter)
	if err != nil {
		return nil, err
	}
	report := &QAAnalyticsReport{
		TotalQuestions:    counts.Questions,
		TotalAnswers:      counts.Answers,
		AnsweredQuestions: counts.Answered,
		GeneratedAt:       time.Now().UTC(),
	}
	if counts.Questions > 0 {
		report.AnswerRate = float64(counts.Answered) / float64(counts.Questions)
	}

	if rc.IsSuperAdmin() {
		perTenant, err := s.questionRepo.CountsByTenant(ctx, nil, since)
		if err != nil {
			return nil, err
		}
		tenants, err := s.tenantRepo.List(ctx, nil)
		if err != nil {
			return nil, err
		}
		names := make(map[uuid.UUID]string, len(tenants))
		for _, t := range tenants {
			names[t.ID] = t.Name
		}
		for _, row := range perTenant {
			report.PerTenant = append(report.PerTenant, TenantQAStats{
				TenantID:   row.TenantID,
				TenantName: names[row.TenantID],
				Questions:  row.Questions,
				Answered:   row.Answered,
			})
		}
	}
	return report, nil
}

func (s *analyticsService) AccessLogs(ctx context.Context, rc *ctxutil.RequestContext, filter repos.AccessLogFilter) ([]*types.AccessLog, error) {
	if !rc.IsManager() {
		return nil, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	if !rc.IsSuperAdmin() {
		filter.TenantID = rc.TenantID
	}
	return s.accessLogRepo.ListRecent(ctx, nil, filter)
}
