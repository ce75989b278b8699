package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/munidigital/plano/internal/plan/service"
)

// DepartmentHandler exposes the department registry.
type DepartmentHandler struct {
	svc *service.DepartmentService
}

func NewDepartmentHandler(svc *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{svc: svc}
}

// ListDepartments lists departments
// GET /api/v1/departments?status=active
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	departments, err := h.svc.ListDepartments(c.Request.Context(), c.Query("status"))
	if err != nil {
		InternalError(c, "failed to list departments: "+err.Error())
		return
	}
	Success(c, departments)
}

// GetDepartment returns one department
// GET /api/v1/departments/:id
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	dept, err := h.svc.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, dept)
}

// CreateDepartment registers a department
// POST /api/v1/departments
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	dept, err := h.svc.CreateDepartment(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, dept)
}

// UpdateDepartment renames or deactivates a department
// PUT /api/v1/departments/:id
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	var req service.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	dept, err := h.svc.UpdateDepartment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, dept)
}
