package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DemandRecord is a department's procurement requisition for one fiscal year.
// Records are never deleted; terminal statuses are kept for audit.
type DemandRecord struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	Code        string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Description string `json:"description" gorm:"size:500;not null"`

	DepartmentID string      `json:"department_id" gorm:"size:32;not null;index"`
	Department   *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`

	FiscalYear int    `json:"fiscal_year" gorm:"not null;index"`
	Category   string `json:"category" gorm:"size:20;index"`                // goods/services/works
	Priority   string `json:"priority" gorm:"size:20;default:medium"`       // high/medium/low
	Status     string `json:"status" gorm:"size:20;default:pending;index"`  // pending/accepted/rejected/withdrawn/removed
	TargetDate *time.Time `json:"target_date"`

	// Cancellation sub-protocol; the flag is only meaningful while accepted.
	CancellationRequested bool   `json:"cancellation_requested" gorm:"default:false"`
	CancellationReason    string `json:"cancellation_reason" gorm:"type:text"`
	DenialReason          string `json:"denial_reason" gorm:"type:text"`
	RejectionReason       string `json:"rejection_reason" gorm:"type:text"`

	RequestedBy string     `json:"requested_by" gorm:"size:32;not null"`
	ApprovedBy  *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt  *time.Time `json:"approved_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Notes       string     `json:"notes" gorm:"type:text"`

	Items []DemandItem `json:"items,omitempty" gorm:"foreignKey:DemandID"`
}

func (DemandRecord) TableName() string {
	return "plan_demand_records"
}

// Demand record status
const (
	DemandStatusPending   = "pending"
	DemandStatusAccepted  = "accepted"
	DemandStatusRejected  = "rejected"
	DemandStatusWithdrawn = "withdrawn"
	DemandStatusRemoved   = "removed"

	// Legacy value seen in imported data; read as withdrawn.
	DemandStatusLegacyCancelled = "cancelled"
)

// Priority
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Category
const (
	CategoryGoods    = "goods"
	CategoryServices = "services"
	CategoryWorks    = "works"
)

// DemandItem is one priced, quantified good/service inside a demand record.
// Items live and die with their record.
type DemandItem struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	DemandID string `json:"demand_id" gorm:"size:32;not null;index"`

	Description string          `json:"description" gorm:"size:500;not null"`
	Unit        string          `json:"unit" gorm:"size:20;not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null"`
	UnitValue   decimal.Decimal `json:"unit_value" gorm:"type:decimal(15,2);not null"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DemandItem) TableName() string {
	return "plan_demand_items"
}

// TotalValue is the item's contribution to its record's total.
func (i DemandItem) TotalValue() decimal.Decimal {
	return i.Quantity.Mul(i.UnitValue)
}
