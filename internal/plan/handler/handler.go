package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/munidigital/plano/internal/plan/lifecycle"
	"github.com/munidigital/plano/internal/plan/repository"
	"github.com/munidigital/plano/internal/plan/service"
)

// Handlers is the plan handler set.
type Handlers struct {
	Department *DepartmentHandler
	Demand     *DemandHandler
	Plan       *PlanHandler
	SSE        *SSEHandler
}

func NewHandlers(
	departmentSvc *service.DepartmentService,
	demandSvc *service.DemandService,
	planSvc *service.PlanService,
) *Handlers {
	return &Handlers{
		Department: NewDepartmentHandler(departmentSvc),
		Demand:     NewDemandHandler(demandSvc),
		Plan:       NewPlanHandler(planSvc),
		SSE:        NewSSEHandler(),
	}
}

// === response helpers ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError maps the engine's error taxonomy onto the response envelope:
// guard violations are conflicts, validation problems are bad requests,
// missing records are not-found.
func RespondError(c *gin.Context, err error) {
	var precondition *lifecycle.PreconditionError
	var validation *service.ValidationError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "record not found")
	case errors.As(err, &precondition):
		Conflict(c, precondition.Error())
	case errors.As(err, &validation):
		BadRequest(c, validation.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetActor builds the guard-call identity from the authenticated claims. The
// role check itself already happened at the gate; CanApprove just carries the
// decision into the engine.
func GetActor(c *gin.Context) lifecycle.Actor {
	actor := lifecycle.Actor{ID: GetUserID(c)}
	if roles, exists := c.Get("roles"); exists {
		if rs, ok := roles.([]string); ok {
			for _, r := range rs {
				if r == "plan_admin" {
					actor.CanApprove = true
				}
			}
		}
	}
	return actor
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
