package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type CategoryHandler struct {
	categoryService services.CategoryService
}

func NewCategoryHandler(categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (ch *CategoryHandler) ListAll(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	categories, err := ch.categoryService.ListAll(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": categories})
}

func (ch *CategoryHandler) Create(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	category, err := ch.categoryService.Create(c.Request.Context(), rc, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, category)
}

func (ch *CategoryHandler) Update(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	category, err := ch.categoryService.Update(c.Request.Context(), rc, id, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, category)
}

func (ch *CategoryHandler) Delete(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := ch.categoryService.Delete(c.Request.Context(), rc, id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ch *CategoryHandler) IndustryAccess(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	industryIDs, err := ch.categoryService.IndustryAccess(c.Request.Context(), rc, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"industry_ids": industryIDs})
}

// SetIndustryAccess replaces the allow-list in one shot. An empty list makes
// the category public.
func (ch *CategoryHandler) SetIndustryAccess(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		IndustryIDs []uuid.UUID `json:"industry_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ch.categoryService.SetIndustryAccess(c.Request.Context(), rc, id, req.IndustryIDs); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
