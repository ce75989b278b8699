package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/munidigital/plano/internal/plan/entity"
	"github.com/munidigital/plano/internal/plan/lifecycle"
	"github.com/munidigital/plano/internal/plan/repository"
	"github.com/munidigital/plano/internal/plan/sse"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DemandService owns demand record CRUD and the lifecycle transitions.
type DemandService struct {
	demandRepo *repository.DemandRepository
	deptRepo   *repository.DepartmentRepository
	rdb        *redis.Client
	logger     *zap.Logger
}

func NewDemandService(demandRepo *repository.DemandRepository, deptRepo *repository.DepartmentRepository, rdb *redis.Client, logger *zap.Logger) *DemandService {
	return &DemandService{
		demandRepo: demandRepo,
		deptRepo:   deptRepo,
		rdb:        rdb,
		logger:     logger,
	}
}

// ListDemands returns a page of demand records.
func (s *DemandService) ListDemands(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.DemandRecord, int64, error) {
	return s.demandRepo.FindAll(ctx, page, pageSize, filters)
}

// GetDemand returns one demand record with items.
func (s *DemandService) GetDemand(ctx context.Context, id string) (*entity.DemandRecord, error) {
	return s.demandRepo.FindByID(ctx, id)
}

// CreateDemandRequest creates a demand record in pending status.
type CreateDemandRequest struct {
	Description  string             `json:"description" binding:"required"`
	DepartmentID string             `json:"department_id" binding:"required"`
	FiscalYear   int                `json:"fiscal_year" binding:"required"`
	Category     string             `json:"category"`
	Priority     string             `json:"priority"`
	TargetDate   *time.Time         `json:"target_date"`
	Notes        string             `json:"notes"`
	Items        []CreateDemandItem `json:"items" binding:"required"`
}

type CreateDemandItem struct {
	Description string          `json:"description" binding:"required"`
	Unit        string          `json:"unit" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	Notes       string          `json:"notes"`
}

// CreateDemand creates a record owned by userID.
func (s *DemandService) CreateDemand(ctx context.Context, userID string, req *CreateDemandRequest) (*entity.DemandRecord, error) {
	if _, err := s.deptRepo.FindByID(ctx, req.DepartmentID); err != nil {
		if err == repository.ErrNotFound {
			return nil, validationErr("department_id", "department does not exist")
		}
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, validationErr("items", "a demand record needs at least one line item")
	}
	items, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	if priority != entity.PriorityHigh && priority != entity.PriorityMedium && priority != entity.PriorityLow {
		return nil, validationErr("priority", "priority must be high, medium or low")
	}

	code, err := s.demandRepo.GenerateCode(ctx, req.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("generate demand code: %w", err)
	}

	rec := &entity.DemandRecord{
		ID:           uuid.New().String()[:32],
		Code:         code,
		Description:  strings.TrimSpace(req.Description),
		DepartmentID: req.DepartmentID,
		FiscalYear:   req.FiscalYear,
		Category:     req.Category,
		Priority:     priority,
		Status:       entity.DemandStatusPending,
		TargetDate:   req.TargetDate,
		RequestedBy:  userID,
		Notes:        req.Notes,
	}
	for i := range items {
		items[i].DemandID = rec.ID
		items[i].SortOrder = i + 1
	}
	rec.Items = items

	if err := s.demandRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("demand record created",
		zap.String("demand_id", rec.ID),
		zap.String("code", rec.Code),
		zap.Int("fiscal_year", rec.FiscalYear),
		zap.Int("items", len(rec.Items)),
	)
	return rec, nil
}

// UpdateDemandRequest mutates a pending record.
type UpdateDemandRequest struct {
	Description *string            `json:"description"`
	Category    *string            `json:"category"`
	Priority    *string            `json:"priority"`
	TargetDate  *time.Time         `json:"target_date"`
	Notes       *string            `json:"notes"`
	Items       []CreateDemandItem `json:"items"`
}

// UpdateDemand edits a record while it is still pending. Anything past
// pending is immutable except through transitions.
func (s *DemandService) UpdateDemand(ctx context.Context, id string, req *UpdateDemandRequest) (*entity.DemandRecord, error) {
	rec, err := s.demandRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != entity.DemandStatusPending {
		return nil, &lifecycle.PreconditionError{
			Event:  "update",
			Guard:  lifecycle.GuardSourceState,
			Detail: fmt.Sprintf("record is %s, only pending records can be edited", rec.Status),
		}
	}

	if req.Description != nil {
		rec.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		rec.Category = *req.Category
	}
	if req.Priority != nil {
		if *req.Priority != entity.PriorityHigh && *req.Priority != entity.PriorityMedium && *req.Priority != entity.PriorityLow {
			return nil, validationErr("priority", "priority must be high, medium or low")
		}
		rec.Priority = *req.Priority
	}
	if req.TargetDate != nil {
		rec.TargetDate = req.TargetDate
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}

	if req.Items != nil {
		items, err := buildItems(req.Items)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].DemandID = rec.ID
			items[i].SortOrder = i + 1
		}
		if err := s.demandRepo.ReplaceItems(ctx, rec.ID, items); err != nil {
			return nil, err
		}
		rec.Items = items
	}

	if err := s.demandRepo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func buildItems(reqItems []CreateDemandItem) ([]entity.DemandItem, error) {
	items := make([]entity.DemandItem, 0, len(reqItems))
	for i, item := range reqItems {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Description) == "" {
			return nil, validationErr(field+".description", "description is required")
		}
		if strings.TrimSpace(item.Unit) == "" {
			return nil, validationErr(field+".unit", "unit of measure is required")
		}
		if item.Quantity.IsNegative() {
			return nil, validationErr(field+".quantity", "quantity cannot be negative")
		}
		if item.UnitValue.IsNegative() {
			return nil, validationErr(field+".unit_value", "unit value cannot be negative")
		}
		items = append(items, entity.DemandItem{
			ID:          uuid.New().String()[:32],
			Description: strings.TrimSpace(item.Description),
			Unit:        strings.TrimSpace(item.Unit),
			Quantity:    item.Quantity,
			UnitValue:   item.UnitValue,
			Notes:       item.Notes,
		})
	}
	return items, nil
}

// === lifecycle transitions ===

// Approve accepts a pending record into the annual plan.
func (s *DemandService) Approve(ctx context.Context, id string, actor lifecycle.Actor) (*entity.DemandRecord, error) {
	return s.applyTransition(ctx, id, lifecycle.Request{Event: lifecycle.EventApprove, Actor: actor})
}

// Reject declines a pending record with a justification.
func (s *DemandService) Reject(ctx context.Context, id string, actor lifecycle.Actor, justification string) (*entity.DemandRecord, error) {
	return s.applyTransition(ctx, id, lifecycle.Request{Event: lifecycle.EventReject, Actor: actor, Justification: justification})
}

// Withdraw lets the creator retract a record before acceptance.
func (s *DemandService) Withdraw(ctx context.Context, id string, actor lifecycle.Actor) (*entity.DemandRecord, error) {
	return s.applyTransition(ctx, id, lifecycle.Request{Event: lifecycle.EventWithdraw, Actor: actor})
}

// RequestCancellation opens the cancellation sub-protocol on an accepted
// record. The record keeps counting in consolidation until resolved.
func (s *DemandService) RequestCancellation(ctx context.Context, id string, actor lifecycle.Actor, justification string) (*entity.DemandRecord, error) {
	return s.applyTransition(ctx, id, lifecycle.Request{Event: lifecycle.EventRequestCancellation, Actor: actor, Justification: justification})
}

// ApproveCancellation removes an accepted record from all future passes.
func (s *DemandService) ApproveCancellation(ctx context.Context, id string, actor lifecycle.Actor) (*entity.DemandRecord, error) {
	return s.applyTransition(ctx, id, lifecycle.Request{Event: lifecycle.EventApproveCancellation, Actor: actor})
}

// DenyCancellation keeps an accepted record in the plan and clears the flag.
func (s *DemandService) DenyCancellation(ctx context.Context, id string, actor lifecycle.Actor, justification string) (*entity.DemandRecord, error) {
	return s.applyTransition(ctx, id, lifecycle.Request{Event: lifecycle.EventDenyCancellation, Actor: actor, Justification: justification})
}

// applyTransition loads the record, lets the state machine decide, then
// applies the outcome with a compare-and-swap on status + cancellation flag.
// A lost race against an identical retry is a success; any other concurrent
// change surfaces as PreconditionFailed.
func (s *DemandService) applyTransition(ctx context.Context, id string, req lifecycle.Request) (*entity.DemandRecord, error) {
	rec, err := s.demandRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome, err := lifecycle.Decide(snapshotOf(rec), req)
	if err != nil {
		return nil, err
	}
	if outcome.NoOp {
		return rec, nil
	}

	upd := buildStatusUpdate(req, outcome)
	swapped, err := s.demandRepo.CompareAndSwapStatus(ctx, rec.ID, rec.Status, rec.CancellationRequested, upd)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// Someone else moved the record first. If they applied the same
		// outcome this call is an idempotent retry; otherwise the guarded
		// source state is gone.
		current, err := s.demandRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == string(outcome.Status) && current.CancellationRequested == outcome.CancellationRequested {
			return current, nil
		}
		return nil, &lifecycle.PreconditionError{
			Event:  req.Event,
			Guard:  lifecycle.GuardSourceState,
			Detail: fmt.Sprintf("record moved to %s by a concurrent transition", current.Status),
		}
	}

	s.invalidatePlanCache(ctx, rec.FiscalYear)
	sse.PublishDemandUpdate(rec.ID, string(req.Event), string(outcome.Status), rec.FiscalYear)
	if req.Actor.ID != rec.RequestedBy {
		sse.PublishUserDemandUpdate(rec.RequestedBy, rec.ID, string(req.Event), string(outcome.Status))
	}
	s.logger.Info("demand transition applied",
		zap.String("demand_id", rec.ID),
		zap.String("event", string(req.Event)),
		zap.String("from", rec.Status),
		zap.String("to", string(outcome.Status)),
		zap.String("actor", req.Actor.ID),
	)

	return s.demandRepo.FindByID(ctx, id)
}

func snapshotOf(rec *entity.DemandRecord) lifecycle.Record {
	return lifecycle.Record{
		Status:                lifecycle.Normalize(rec.Status),
		CancellationRequested: rec.CancellationRequested,
		CreatedBy:             rec.RequestedBy,
	}
}

func buildStatusUpdate(req lifecycle.Request, outcome lifecycle.Outcome) repository.StatusUpdate {
	upd := repository.StatusUpdate{
		Status:                string(outcome.Status),
		CancellationRequested: outcome.CancellationRequested,
	}
	switch req.Event {
	case lifecycle.EventApprove:
		now := time.Now()
		upd.ApprovedBy = &req.Actor.ID
		upd.ApprovedAt = &now
	case lifecycle.EventReject:
		upd.RejectionReason = &outcome.Justification
	case lifecycle.EventRequestCancellation:
		upd.CancellationReason = &outcome.Justification
	case lifecycle.EventDenyCancellation:
		upd.DenialReason = &outcome.Justification
	}
	return upd
}

// invalidatePlanCache bumps the year's plan generation so the next
// consolidation read recomputes. Stale keys expire on their own.
func (s *DemandService) invalidatePlanCache(ctx context.Context, fiscalYear int) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, planGenKey(fiscalYear)).Err(); err != nil {
		s.logger.Warn("plan cache invalidation failed", zap.Int("fiscal_year", fiscalYear), zap.Error(err))
	}
}
