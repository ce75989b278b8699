package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/munidigital/plano/internal/plan/service"
)

// PlanHandler exposes the consolidated annual plan read-only.
type PlanHandler struct {
	svc *service.PlanService
}

func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// GetConsolidatedPlan runs a consolidation pass
// GET /api/v1/plan/consolidated?fiscal_year=2026&category=goods
func (h *PlanHandler) GetConsolidatedPlan(c *gin.Context) {
	fiscalYear, ok := fiscalYearParam(c)
	if !ok {
		return
	}

	plan, err := h.svc.ConsolidatedPlan(c.Request.Context(), fiscalYear, c.Query("category"))
	if err != nil {
		InternalError(c, "consolidation pass failed: "+err.Error())
		return
	}
	Success(c, plan)
}

// GetPlanSummary returns the year's headline numbers
// GET /api/v1/plan/summary?fiscal_year=2026
func (h *PlanHandler) GetPlanSummary(c *gin.Context) {
	fiscalYear, ok := fiscalYearParam(c)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), fiscalYear)
	if err != nil {
		InternalError(c, "failed to build plan summary: "+err.Error())
		return
	}
	Success(c, summary)
}

func fiscalYearParam(c *gin.Context) (int, bool) {
	raw := c.Query("fiscal_year")
	if raw == "" {
		BadRequest(c, "fiscal_year is required")
		return 0, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2100 {
		BadRequest(c, "fiscal_year must be a valid year")
		return 0, false
	}
	return year, true
}
