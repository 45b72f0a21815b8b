package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type AnnouncementHandler struct {
	announcementService services.AnnouncementService
}

func NewAnnouncementHandler(announcementService services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

func (ah *AnnouncementHandler) Visible(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	announcements, err := ah.announcementService.Visible(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"announcements": announcements})
}

func (ah *AnnouncementHandler) ListAll(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	announcements, err := ah.announcementService.ListAll(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"announcements": announcements})
}

func (ah *AnnouncementHandler) Create(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	var input services.AnnouncementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	announcement, err := ah.announcementService.Create(c.Request.Context(), rc, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, announcement)
}

func (ah *AnnouncementHandler) Update(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.AnnouncementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	announcement, err := ah.announcementService.Update(c.Request.Context(), rc, id, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, announcement)
}

func (ah *AnnouncementHandler) Delete(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ah.announcementService.Delete(c.Request.Context(), rc, id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
