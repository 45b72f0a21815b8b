package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/repos"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (ah *AnalyticsHandler) Summary(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	summary, err := ah.analyticsService.Summary(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

// daysParam reads the optional ?days= aggregation window; absent or
// malformed means no window.
func daysParam(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("days"))
	if raw == "" {
		return 0
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0
	}
	return days
}

func (ah *AnalyticsHandler) VideoAnalytics(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	report, err := ah.analyticsService.VideoAnalytics(c.Request.Context(), rc, daysParam(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, report)
}

func (ah *AnalyticsHandler) UserProgress(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	report, err := ah.analyticsService.UserProgress(c.Request.Context(), rc, daysParam(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, report)
}

func (ah *AnalyticsHandler) QAAnalytics(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	report, err := ah.analyticsService.QAAnalytics(c.Request.Context(), rc, daysParam(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, report)
}

func (ah *AnalyticsHandler) AccessLogs(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())

	filter := repos.AccessLogFilter{Path: strings.TrimSpace(c.Query("path"))}
	if raw := strings.TrimSpace(c.Query("tenant_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_tenant_id", err)
			return
		}
		filter.TenantID = &id
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
			return
		}
		filter.UserID = &id
	}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_since", err)
			return
		}
		filter.Since = &since
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	logs, err := ah.analyticsService.AccessLogs(c.Request.Context(), rc, filter)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"logs": logs})
}
