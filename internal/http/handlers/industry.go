package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type IndustryHandler struct {
	industryService services.IndustryService
}

func NewIndustryHandler(industryService services.IndustryService) *IndustryHandler {
	return &IndustryHandler{industryService: industryService}
}

func (ih *IndustryHandler) List(c *gin.Context) {
	industries, err := ih.industryService.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"industries": industries})
}

func (ih *IndustryHandler) Create(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	var input services.IndustryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	industry, err := ih.industryService.Create(c.Request.Context(), rc, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, industry)
}

func (ih *IndustryHandler) Update(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.IndustryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	industry, err := ih.industryService.Update(c.Request.Context(), rc, id, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, industry)
}

func (ih *IndustryHandler) Delete(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ih.industryService.Delete(c.Request.Context(), rc, id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
