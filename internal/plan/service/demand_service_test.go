package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/munidigital/plano/internal/plan/entity"
	"github.com/munidigital/plano/internal/plan/lifecycle"
	"github.com/munidigital/plano/internal/plan/repository"
	"github.com/munidigital/plano/internal/plan/service"
	"github.com/munidigital/plano/internal/plan/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDemandService(t *testing.T) (*service.DemandService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return service.NewDemandService(repos.Demand, repos.Department, nil, zap.NewNop()), db
}

func newDemandRequest(departmentID string) *service.CreateDemandRequest {
	return &service.CreateDemandRequest{
		Description:  "Office furniture demand",
		DepartmentID: departmentID,
		FiscalYear:   2026,
		Category:     entity.CategoryGoods,
		Items: []service.CreateDemandItem{
			{Description: "Office chair", Unit: "un", Quantity: decimal.NewFromInt(12), UnitValue: decimal.NewFromInt(450)},
		},
	}
}

func TestCreateDemandGeneratesSequentialCodes(t *testing.T) {
	svc, db := setupDemandService(t)
	ctx := context.Background()
	dept := testutil.SeedDepartment(t, db, "dept-adm-0000000000000000000001", "ADM", "Administration")

	first, err := svc.CreateDemand(ctx, "user-adm-001", newDemandRequest(dept.ID))
	require.NoError(t, err)
	second, err := svc.CreateDemand(ctx, "user-adm-001", newDemandRequest(dept.ID))
	require.NoError(t, err)

	assert.Equal(t, "DR-2026-0001", first.Code)
	assert.Equal(t, "DR-2026-0002", second.Code)
	assert.Equal(t, entity.DemandStatusPending, first.Status)
	assert.Equal(t, entity.PriorityMedium, first.Priority, "priority defaults to medium")
	require.Len(t, first.Items, 1)
	assert.Equal(t, 1, first.Items[0].SortOrder)
}

func TestCreateDemandRejectsUnknownDepartment(t *testing.T) {
	svc, _ := setupDemandService(t)

	_, err := svc.CreateDemand(context.Background(), "user-x", newDemandRequest("no-such-department"))

	var validation *service.ValidationError
	require.True(t, errors.As(err, &validation), "got %T", err)
	assert.Equal(t, "department_id", validation.Field)
}

func TestCreateDemandRejectsNegativeQuantity(t *testing.T) {
	svc, db := setupDemandService(t)
	dept := testutil.SeedDepartment(t, db, "dept-adm-0000000000000000000001", "ADM", "Administration")

	req := newDemandRequest(dept.ID)
	req.Items[0].Quantity = decimal.NewFromInt(-3)

	_, err := svc.CreateDemand(context.Background(), "user-x", req)

	var validation *service.ValidationError
	require.True(t, errors.As(err, &validation), "got %T", err)
	assert.Contains(t, validation.Field, "quantity")
}

func TestLegacyCancelledStatusReadsAsWithdrawn(t *testing.T) {
	svc, db := setupDemandService(t)
	ctx := context.Background()
	dept := testutil.SeedDepartment(t, db, "dept-adm-0000000000000000000001", "ADM", "Administration")

	// Imported rows may still carry the retired "cancelled" status.
	legacy := &entity.DemandRecord{
		ID:           "legacy-rec-00000000000000000001",
		Code:         "DR-2025-0001",
		Description:  "Imported legacy record",
		DepartmentID: dept.ID,
		FiscalYear:   2025,
		Status:       entity.DemandStatusLegacyCancelled,
		RequestedBy:  "user-adm-001",
	}
	require.NoError(t, db.Create(legacy).Error)

	// Withdrawn is terminal, so approval must hit the source-state guard.
	_, err := svc.Approve(ctx, legacy.ID, lifecycle.Actor{ID: "admin", CanApprove: true})

	var precondition *lifecycle.PreconditionError
	require.True(t, errors.As(err, &precondition), "got %T", err)
	assert.Equal(t, lifecycle.GuardSourceState, precondition.Guard)
}

func TestConcurrentTransitionLosesToDifferentOutcome(t *testing.T) {
	svc, db := setupDemandService(t)
	ctx := context.Background()
	dept := testutil.SeedDepartment(t, db, "dept-adm-0000000000000000000001", "ADM", "Administration")

	rec, err := svc.CreateDemand(ctx, "user-adm-001", newDemandRequest(dept.ID))
	require.NoError(t, err)

	admin := lifecycle.Actor{ID: "admin", CanApprove: true}
	_, err = svc.Approve(ctx, rec.ID, admin)
	require.NoError(t, err)

	// The guarded source state is gone: rejecting an accepted record fails
	// before any write happens.
	_, err = svc.Reject(ctx, rec.ID, admin, "changed my mind")

	var precondition *lifecycle.PreconditionError
	require.True(t, errors.As(err, &precondition), "got %T", err)

	current, err := svc.GetDemand(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DemandStatusAccepted, current.Status)
}
