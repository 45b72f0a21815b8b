package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type ProgressHandler struct {
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

func (ph *ProgressHandler) Record(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	var input services.ProgressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	progress, err := ph.progressService.Record(c.Request.Context(), rc, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, progress)
}

func (ph *ProgressHandler) MyProgress(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	progress, err := ph.progressService.MyProgress(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progress})
}
