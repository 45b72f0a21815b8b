package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type TranscriptionHandler struct {
	transcriptionService services.TranscriptionService
}

func NewTranscriptionHandler(transcriptionService services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{transcriptionService: transcriptionService}
}

func (th *TranscriptionHandler) Enqueue(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	job, err := th.transcriptionService.Enqueue(c.Request.Context(), rc, videoID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, job)
}

func (th *TranscriptionHandler) Status(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	status, err := th.transcriptionService.Status(c.Request.Context(), rc, videoID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, status)
}
