package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (ch *CatalogHandler) Catalog(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	categories, err := ch.catalogService.Catalog(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": categories})
}

func (ch *CatalogHandler) Categories(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	categories, err := ch.catalogService.VisibleCategories(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": categories})
}

func (ch *CatalogHandler) CategoryDetail(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	detail, err := ch.catalogService.CategoryDetail(c.Request.Context(), rc, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

func (ch *CatalogHandler) Dashboard(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	dashboard, err := ch.catalogService.Dashboard(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, dashboard)
}
