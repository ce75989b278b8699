// Package consolidate turns the accepted demand records of one fiscal year
// into the deduplicated annual plan.
//
// The pass is pure and deterministic: the same input set always produces the
// same grouping keys, aggregates and ordering. Nothing is cached or mutated
// in place; callers re-run the pass whenever they need a fresh view.
package consolidate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the consolidation-relevant snapshot of one accepted demand
// record. A pending cancellation request does not exclude the record.
type Record struct {
	ID             string
	Code           string
	DepartmentID   string
	DepartmentName string
	Priority       Priority
	TargetDate     *time.Time
	Items          []Item
}

// Item is one line item inside a record snapshot.
type Item struct {
	ID          string
	Description string
	Unit        string
	Quantity    decimal.Decimal
	UnitValue   decimal.Decimal
}

// BreakdownEntry traces one record's contribution to a consolidated item.
// The same department appearing through two records stays as two entries.
type BreakdownEntry struct {
	DepartmentID     string          `json:"department_id"`
	DepartmentName   string          `json:"department_name"`
	DemandID         string          `json:"demand_id"`
	DemandCode       string          `json:"demand_code"`
	Quantity         decimal.Decimal `json:"quantity"`
	Value            decimal.Decimal `json:"value"`
	DeclaredPriority Priority        `json:"declared_priority"`
	DeclaredDate     *time.Time      `json:"declared_date,omitempty"`
}

// ConsolidatedItem is the aggregated view of one procurement need across all
// contributing records. It exists only for the duration of a pass.
type ConsolidatedItem struct {
	Key              string           `json:"key"`
	Description      string           `json:"description"`
	Unit             string           `json:"unit"`
	Quantity         decimal.Decimal  `json:"quantity"`
	Value            decimal.Decimal  `json:"value"`
	OfficialPriority Priority         `json:"official_priority"`
	OfficialDate     *time.Time       `json:"official_date,omitempty"`
	Breakdown        []BreakdownEntry `json:"breakdown"`
}

// SkippedRecord reports a record the pass could not consolidate. One corrupt
// record must not blank out the whole plan view.
type SkippedRecord struct {
	DemandID string `json:"demand_id"`
	Code     string `json:"code"`
	Reason   string `json:"reason"`
}

// Plan is the output of one consolidation pass.
type Plan struct {
	Items           []ConsolidatedItem `json:"items"`
	TotalValue      decimal.Decimal    `json:"total_value"`
	DepartmentCount int                `json:"department_count"`
	Skipped         []SkippedRecord    `json:"skipped,omitempty"`
}

// Key builds the grouping key for a line item: folded description plus folded
// unit. Two items with the same key are the same procurement need no matter
// which department declared them.
func Key(description, unit string) string {
	return fold(description) + "|" + fold(unit)
}

// fold lower-cases, trims and collapses internal whitespace.
func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Consolidate runs one pass over the given record snapshots.
//
// Records with malformed items (negative quantity or value, blank description
// or unit) are skipped and reported; zero quantities are legal placeholders
// and contribute zero. Records with no items contribute nothing.
func Consolidate(records []Record) Plan {
	groups := make(map[string]*ConsolidatedItem)
	plan := Plan{TotalValue: decimal.Zero}

	for _, rec := range records {
		if reason := validate(rec); reason != "" {
			plan.Skipped = append(plan.Skipped, SkippedRecord{
				DemandID: rec.ID,
				Code:     rec.Code,
				Reason:   reason,
			})
			continue
		}

		for _, item := range rec.Items {
			key := Key(item.Description, item.Unit)
			group, ok := groups[key]
			if !ok {
				group = &ConsolidatedItem{
					Key:         key,
					Description: fold(item.Description),
					Unit:        fold(item.Unit),
					Quantity:    decimal.Zero,
					Value:       decimal.Zero,
				}
				groups[key] = group
			}

			value := item.Quantity.Mul(item.UnitValue)
			group.Quantity = group.Quantity.Add(item.Quantity)
			group.Value = group.Value.Add(value)
			group.Breakdown = append(group.Breakdown, BreakdownEntry{
				DepartmentID:     rec.DepartmentID,
				DepartmentName:   rec.DepartmentName,
				DemandID:         rec.ID,
				DemandCode:       rec.Code,
				Quantity:         item.Quantity,
				Value:            value,
				DeclaredPriority: rec.Priority,
				DeclaredDate:     rec.TargetDate,
			})
		}
	}

	departments := make(map[string]struct{})
	plan.Items = make([]ConsolidatedItem, 0, len(groups))
	for _, group := range groups {
		sort.SliceStable(group.Breakdown, func(i, j int) bool {
			a, b := group.Breakdown[i], group.Breakdown[j]
			if a.DepartmentName != b.DepartmentName {
				return a.DepartmentName < b.DepartmentName
			}
			return a.DemandID < b.DemandID
		})

		declarations := make([]Declaration, 0, len(group.Breakdown))
		for _, entry := range group.Breakdown {
			declarations = append(declarations, Declaration{
				Priority: entry.DeclaredPriority,
				Date:     entry.DeclaredDate,
			})
			departments[entry.DepartmentID] = struct{}{}
		}
		group.OfficialPriority = OfficialPriority(declarations)
		group.OfficialDate = OfficialDate(declarations)

		plan.TotalValue = plan.TotalValue.Add(group.Value)
		plan.Items = append(plan.Items, *group)
	}

	sort.Slice(plan.Items, func(i, j int) bool {
		return plan.Items[i].Key < plan.Items[j].Key
	})
	plan.DepartmentCount = len(departments)
	return plan
}

// validate returns a non-empty reason when the record cannot be consolidated.
func validate(rec Record) string {
	for _, item := range rec.Items {
		switch {
		case strings.TrimSpace(item.Description) == "":
			return fmt.Sprintf("item %s has a blank description", item.ID)
		case strings.TrimSpace(item.Unit) == "":
			return fmt.Sprintf("item %s has a blank unit", item.ID)
		case item.Quantity.IsNegative():
			return fmt.Sprintf("item %s has a negative quantity", item.ID)
		case item.UnitValue.IsNegative():
			return fmt.Sprintf("item %s has a negative unit value", item.ID)
		}
	}
	return ""
}

// Ratio divides part by total. The boolean is false when the denominator is
// zero; callers must treat that as "no value", never as zero or NaN.
func Ratio(part, total decimal.Decimal) (decimal.Decimal, bool) {
	if total.IsZero() {
		return decimal.Zero, false
	}
	return part.Div(total), true
}
