package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/munidigital/plano/internal/plan/entity"
	"gorm.io/gorm"
)

// DemandRepository persists demand records and their items.
type DemandRepository struct {
	db *gorm.DB
}

func NewDemandRepository(db *gorm.DB) *DemandRepository {
	return &DemandRepository{db: db}
}

// FindAll lists demand records with pagination and filters.
func (r *DemandRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.DemandRecord, int64, error) {
	var records []entity.DemandRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.DemandRecord{})

	if year := filters["fiscal_year"]; year != "" {
		query = query.Where("fiscal_year = ?", year)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if departmentID := filters["department_id"]; departmentID != "" {
		query = query.Where("department_id = ?", departmentID)
	}
	if category := filters["category"]; category != "" {
		query = query.Where("category = ?", category)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("description ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items").
		Preload("Department").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&records).Error

	return records, total, err
}

// FindByID loads one demand record with its items ordered as submitted.
func (r *DemandRepository) FindByID(ctx context.Context, id string) (*entity.DemandRecord, error) {
	var rec entity.DemandRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Department").
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindAcceptedByYear returns the consolidation input set: every accepted
// record of the fiscal year, pending cancellation or not, optionally
// restricted to one category.
func (r *DemandRepository) FindAcceptedByYear(ctx context.Context, fiscalYear int, category string) ([]entity.DemandRecord, error) {
	var records []entity.DemandRecord
	query := r.db.WithContext(ctx).
		Where("fiscal_year = ? AND status = ?", fiscalYear, entity.DemandStatusAccepted)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Department").
		Order("code ASC").
		Find(&records).Error
	return records, err
}

// CountByStatus groups the year's records by status.
func (r *DemandRepository) CountByStatus(ctx context.Context, fiscalYear int) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.DemandRecord{}).
		Select("status, COUNT(*) as count").
		Where("fiscal_year = ?", fiscalYear).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// Create persists a record with its items.
func (r *DemandRepository) Create(ctx context.Context, rec *entity.DemandRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Update saves record fields. Items are replaced by the caller explicitly.
func (r *DemandRepository) Update(ctx context.Context, rec *entity.DemandRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

// ReplaceItems swaps a pending record's items inside one transaction.
func (r *DemandRepository) ReplaceItems(ctx context.Context, demandID string, items []entity.DemandItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("demand_id = ?", demandID).Delete(&entity.DemandItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// StatusUpdate is the single atomic unit a transition writes: status plus the
// cancellation fields.
type StatusUpdate struct {
	Status                string
	CancellationRequested bool
	CancellationReason    *string
	DenialReason          *string
	RejectionReason       *string
	ApprovedBy            *string
	ApprovedAt            *time.Time
}

// CompareAndSwapStatus applies a transition only if the record still holds
// the guarded source state. Returns false when another writer got there
// first; the caller reloads and decides whether the race was an identical
// retry.
func (r *DemandRepository) CompareAndSwapStatus(ctx context.Context, id, fromStatus string, fromCancellationRequested bool, upd StatusUpdate) (bool, error) {
	values := map[string]interface{}{
		"status":                 upd.Status,
		"cancellation_requested": upd.CancellationRequested,
		"updated_at":             time.Now(),
	}
	if upd.CancellationReason != nil {
		values["cancellation_reason"] = *upd.CancellationReason
	}
	if upd.DenialReason != nil {
		values["denial_reason"] = *upd.DenialReason
	}
	if upd.RejectionReason != nil {
		values["rejection_reason"] = *upd.RejectionReason
	}
	if upd.ApprovedBy != nil {
		values["approved_by"] = *upd.ApprovedBy
	}
	if upd.ApprovedAt != nil {
		values["approved_at"] = *upd.ApprovedAt
	}

	result := r.db.WithContext(ctx).
		Model(&entity.DemandRecord{}).
		Where("id = ? AND status = ? AND cancellation_requested = ?", id, fromStatus, fromCancellationRequested).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GenerateCode builds the next code DR-{year}-{seq}.
func (r *DemandRepository) GenerateCode(ctx context.Context, fiscalYear int) (string, error) {
	prefix := fmt.Sprintf("DR-%d-", fiscalYear)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.DemandRecord{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, prefix+"%04d", &seq)
	}
	seq++
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
