package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type TenantHandler struct {
	tenantService services.TenantService
}

func NewTenantHandler(tenantService services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

func (th *TenantHandler) List(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	tenants, err := th.tenantService.List(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tenants": tenants})
}

func (th *TenantHandler) Get(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	tenant, err := th.tenantService.Get(c.Request.Context(), rc, id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, tenant)
}

func (th *TenantHandler) Create(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	var input services.TenantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tenant, err := th.tenantService.Create(c.Request.Context(), rc, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, tenant)
}

func (th *TenantHandler) Update(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.TenantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tenant, err := th.tenantService.Update(c.Request.Context(), rc, id, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, tenant)
}

func (th *TenantHandler) Delete(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := th.tenantService.Delete(c.Request.Context(), rc, id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (th *TenantHandler) Health(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	health, err := th.tenantService.Health(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tenants": health})
}

func (th *TenantHandler) ListDepartments(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	departments, err := th.tenantService.ListDepartments(c.Request.Context(), rc, tenantID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"departments": departments})
}

func (th *TenantHandler) CreateDepartment(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.DepartmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	department, err := th.tenantService.CreateDepartment(c.Request.Context(), rc, tenantID, input)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, department)
}

func (th *TenantHandler) DeleteDepartment(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	id, err := uuid.Parse(c.Param("departmentID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := th.tenantService.DeleteDepartment(c.Request.Context(), rc, id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (th *TenantHandler) DepartmentStats(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	stats, err := th.tenantService.DepartmentStats(c.Request.Context(), rc, tenantID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"departments": stats})
}
