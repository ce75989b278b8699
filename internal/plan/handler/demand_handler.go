package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/munidigital/plano/internal/plan/service"
)

// DemandHandler exposes demand record CRUD and lifecycle transitions.
type DemandHandler struct {
	svc *service.DemandService
}

func NewDemandHandler(svc *service.DemandService) *DemandHandler {
	return &DemandHandler{svc: svc}
}

// ListDemands lists demand records
// GET /api/v1/demands?fiscal_year=&status=&department_id=&category=&search=
func (h *DemandHandler) ListDemands(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"fiscal_year":   c.Query("fiscal_year"),
		"status":        c.Query("status"),
		"department_id": c.Query("department_id"),
		"category":      c.Query("category"),
		"search":        c.Query("search"),
	}

	items, total, err := h.svc.ListDemands(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "failed to list demand records: "+err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// GetDemand returns one demand record
// GET /api/v1/demands/:id
func (h *DemandHandler) GetDemand(c *gin.Context) {
	id := c.Param("id")
	rec, err := h.svc.GetDemand(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rec)
}

// CreateDemand submits a new demand record
// POST /api/v1/demands
func (h *DemandHandler) CreateDemand(c *gin.Context) {
	var req service.CreateDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	userID := GetUserID(c)
	rec, err := h.svc.CreateDemand(c.Request.Context(), userID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	Created(c, rec)
}

// UpdateDemand edits a pending demand record
// PUT /api/v1/demands/:id
func (h *DemandHandler) UpdateDemand(c *gin.Context) {
	id := c.Param("id")
	var req service.UpdateDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rec, err := h.svc.UpdateDemand(c.Request.Context(), id, &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, rec)
}

type justificationRequest struct {
	Justification string `json:"justification"`
}

// ApproveDemand accepts a pending record into the plan
// POST /api/v1/demands/:id/approve
func (h *DemandHandler) ApproveDemand(c *gin.Context) {
	rec, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rec)
}

// RejectDemand declines a pending record
// POST /api/v1/demands/:id/reject
func (h *DemandHandler) RejectDemand(c *gin.Context) {
	var req justificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rec, err := h.svc.Reject(c.Request.Context(), c.Param("id"), GetActor(c), req.Justification)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rec)
}

// WithdrawDemand retracts the caller's own pending record
// POST /api/v1/demands/:id/withdraw
func (h *DemandHandler) WithdrawDemand(c *gin.Context) {
	rec, err := h.svc.Withdraw(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rec)
}

// RequestCancellation opens the cancellation sub-protocol
// POST /api/v1/demands/:id/request-cancellation
func (h *DemandHandler) RequestCancellation(c *gin.Context) {
	var req justificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rec, err := h.svc.RequestCancellation(c.Request.Context(), c.Param("id"), GetActor(c), req.Justification)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rec)
}

// ApproveCancellation removes an accepted record from the plan
// POST /api/v1/demands/:id/approve-cancellation
func (h *DemandHandler) ApproveCancellation(c *gin.Context) {
	rec, err := h.svc.ApproveCancellation(c.Request.Context(), c.Param("id"), GetActor(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rec)
}

// DenyCancellation keeps an accepted record in the plan
// POST /api/v1/demands/:id/deny-cancellation
func (h *DemandHandler) DenyCancellation(c *gin.Context) {
	var req justificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rec, err := h.svc.DenyCancellation(c.Request.Context(), c.Param("id"), GetActor(c), req.Justification)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rec)
}
