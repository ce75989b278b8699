package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/munidigital/plano/internal/plan/consolidate"
	"github.com/munidigital/plano/internal/plan/entity"
	"github.com/munidigital/plano/internal/plan/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const planCacheTTL = 10 * time.Minute

// PlanService computes the consolidated annual plan. Every read is a fresh
// pass over the accepted records; Redis only memoizes the result until the
// next committed transition bumps the year's generation counter.
type PlanService struct {
	demandRepo *repository.DemandRepository
	rdb        *redis.Client
	logger     *zap.Logger
}

func NewPlanService(demandRepo *repository.DemandRepository, rdb *redis.Client, logger *zap.Logger) *PlanService {
	return &PlanService{
		demandRepo: demandRepo,
		rdb:        rdb,
		logger:     logger,
	}
}

// ConsolidatedPlan runs (or serves from cache) a consolidation pass for one
// fiscal year, optionally restricted to a category.
func (s *PlanService) ConsolidatedPlan(ctx context.Context, fiscalYear int, category string) (*consolidate.Plan, error) {
	gen := s.planGeneration(ctx, fiscalYear)
	cacheKey := fmt.Sprintf("plan:%d:%d:%s", fiscalYear, gen, category)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var plan consolidate.Plan
			if err := json.Unmarshal(cached, &plan); err == nil {
				return &plan, nil
			}
		}
	}

	records, err := s.demandRepo.FindAcceptedByYear(ctx, fiscalYear, category)
	if err != nil {
		return nil, fmt.Errorf("load accepted records: %w", err)
	}

	plan := consolidate.Consolidate(snapshotRecords(records))

	if len(plan.Skipped) > 0 {
		for _, skipped := range plan.Skipped {
			s.logger.Warn("demand record skipped during consolidation",
				zap.String("demand_id", skipped.DemandID),
				zap.String("code", skipped.Code),
				zap.String("reason", skipped.Reason),
			)
		}
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(plan); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, planCacheTTL).Err(); err != nil {
				s.logger.Warn("plan cache write failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}

	s.logger.Info("consolidation pass completed",
		zap.Int("fiscal_year", fiscalYear),
		zap.String("category", category),
		zap.Int("records", len(records)),
		zap.Int("consolidated_items", len(plan.Items)),
		zap.Int("skipped", len(plan.Skipped)),
	)
	return &plan, nil
}

// PlanSummary is the headline view of one fiscal year.
type PlanSummary struct {
	FiscalYear      int              `json:"fiscal_year"`
	StatusCounts    map[string]int64 `json:"status_counts"`
	TotalRecords    int64            `json:"total_records"`
	AcceptedRecords int64            `json:"accepted_records"`
	// AcceptedShare is absent (null) when the year has no records at all;
	// never a propagated division artifact.
	AcceptedShare *decimal.Decimal `json:"accepted_share,omitempty"`
	TotalValue    decimal.Decimal  `json:"total_value"`
	Departments   int              `json:"departments"`
}

// Summary aggregates per-status counts and the accepted plan totals.
func (s *PlanService) Summary(ctx context.Context, fiscalYear int) (*PlanSummary, error) {
	counts, err := s.demandRepo.CountByStatus(ctx, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("count records by status: %w", err)
	}

	summary := &PlanSummary{
		FiscalYear:   fiscalYear,
		StatusCounts: counts,
		TotalValue:   decimal.Zero,
	}
	for _, n := range counts {
		summary.TotalRecords += n
	}
	summary.AcceptedRecords = counts[entity.DemandStatusAccepted]

	if share, ok := consolidate.Ratio(
		decimal.NewFromInt(summary.AcceptedRecords),
		decimal.NewFromInt(summary.TotalRecords),
	); ok {
		summary.AcceptedShare = &share
	}

	plan, err := s.ConsolidatedPlan(ctx, fiscalYear, "")
	if err != nil {
		return nil, err
	}
	summary.TotalValue = plan.TotalValue
	summary.Departments = plan.DepartmentCount

	return summary, nil
}

// planGeneration reads the year's cache generation; zero when Redis is down
// or the counter was never bumped.
func (s *PlanService) planGeneration(ctx context.Context, fiscalYear int) int64 {
	if s.rdb == nil {
		return 0
	}
	gen, err := s.rdb.Get(ctx, planGenKey(fiscalYear)).Int64()
	if err != nil {
		return 0
	}
	return gen
}

func planGenKey(fiscalYear int) string {
	return fmt.Sprintf("plan:gen:%d", fiscalYear)
}

// snapshotRecords converts stored records into the engine's input snapshots.
func snapshotRecords(records []entity.DemandRecord) []consolidate.Record {
	snapshots := make([]consolidate.Record, 0, len(records))
	for _, rec := range records {
		snapshot := consolidate.Record{
			ID:           rec.ID,
			Code:         rec.Code,
			DepartmentID: rec.DepartmentID,
			Priority:     consolidate.Priority(rec.Priority),
			TargetDate:   rec.TargetDate,
		}
		if rec.Department != nil {
			snapshot.DepartmentName = rec.Department.Name
		}
		for _, item := range rec.Items {
			snapshot.Items = append(snapshot.Items, consolidate.Item{
				ID:          item.ID,
				Description: item.Description,
				Unit:        item.Unit,
				Quantity:    item.Quantity,
				UnitValue:   item.UnitValue,
			})
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}
