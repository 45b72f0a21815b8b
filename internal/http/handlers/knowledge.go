package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type KnowledgeHandler struct {
	knowledgeService services.KnowledgeService
}

func NewKnowledgeHandler(knowledgeService services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

func (kh *KnowledgeHandler) Ingest(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	var req struct {
		SourceFile string     `json:"source_file"`
		Markdown   string     `json:"markdown"`
		IndustryID *uuid.UUID `json:"industry_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := kh.knowledgeService.Ingest(c.Request.Context(), rc, req.SourceFile, req.Markdown, req.IndustryID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (kh *KnowledgeHandler) List(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	entries, err := kh.knowledgeService.List(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entries": entries})
}

func (kh *KnowledgeHandler) Remove(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	var req struct {
		SourceFile string `json:"source_file"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := kh.knowledgeService.Remove(c.Request.Context(), rc, req.SourceFile); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
