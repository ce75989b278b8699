package consolidate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func laptopRecords() []Record {
	return []Record{
		{
			ID:             "rec-edu",
			Code:           "DR-2026-0001",
			DepartmentID:   "dept-edu",
			DepartmentName: "Education",
			Priority:       PriorityLow,
			TargetDate:     date("2026-06-01"),
			Items: []Item{
				{ID: "i1", Description: "Computador Portátil", Unit: "UN", Quantity: d("10"), UnitValue: d("3500.00")},
			},
		},
		{
			ID:             "rec-health",
			Code:           "DR-2026-0002",
			DepartmentID:   "dept-health",
			DepartmentName: "Health",
			Priority:       PriorityHigh,
			TargetDate:     date("2026-03-15"),
			Items: []Item{
				{ID: "i2", Description: "  computador   portátil ", Unit: "un", Quantity: d("4"), UnitValue: d("3600.00")},
				{ID: "i3", Description: "Ambulance stretcher", Unit: "UN", Quantity: d("2"), UnitValue: d("1200.00")},
			},
		},
		{
			ID:             "rec-admin",
			Code:           "DR-2026-0003",
			DepartmentID:   "dept-admin",
			DepartmentName: "Administration",
			Priority:       PriorityMedium,
			TargetDate:     date("2026-09-01"),
			Items: []Item{
				{ID: "i4", Description: "Computador Portátil", Unit: "CX", Quantity: d("1"), UnitValue: d("9000.00")},
			},
		},
	}
}

func TestConsolidateGroupsByNormalizedKey(t *testing.T) {
	plan := Consolidate(laptopRecords())

	// Laptops in UN merge across departments; the CX unit stays separate.
	require.Len(t, plan.Items, 3)

	var laptops *ConsolidatedItem
	for i := range plan.Items {
		if plan.Items[i].Key == "computador portátil|un" {
			laptops = &plan.Items[i]
		}
	}
	require.NotNil(t, laptops, "expected merged laptop group")

	assert.True(t, laptops.Quantity.Equal(d("14")), "quantity: %s", laptops.Quantity)
	assert.True(t, laptops.Value.Equal(d("49400.00")), "value: %s", laptops.Value)
	require.Len(t, laptops.Breakdown, 2)

	// Breakdown ordered by department name.
	assert.Equal(t, "Education", laptops.Breakdown[0].DepartmentName)
	assert.Equal(t, "Health", laptops.Breakdown[1].DepartmentName)
}

func TestConsolidateConflictResolution(t *testing.T) {
	plan := Consolidate(laptopRecords())

	for _, item := range plan.Items {
		if item.Key != "computador portátil|un" {
			continue
		}
		// [low, high] → high; [06-01, 03-15] → 03-15.
		assert.Equal(t, PriorityHigh, item.OfficialPriority)
		require.NotNil(t, item.OfficialDate)
		assert.Equal(t, *date("2026-03-15"), *item.OfficialDate)
	}
}

func TestConsolidateAggregatesMatchBreakdown(t *testing.T) {
	plan := Consolidate(laptopRecords())

	total := decimal.Zero
	for _, item := range plan.Items {
		quantity := decimal.Zero
		value := decimal.Zero
		for _, entry := range item.Breakdown {
			quantity = quantity.Add(entry.Quantity)
			value = value.Add(entry.Value)
		}
		assert.True(t, item.Quantity.Equal(quantity), "%s quantity drift", item.Key)
		assert.True(t, item.Value.Equal(value), "%s value drift", item.Key)
		total = total.Add(item.Value)
	}
	assert.True(t, plan.TotalValue.Equal(total), "plan total drift")
	assert.Equal(t, 3, plan.DepartmentCount)
}

func TestConsolidateDeterminism(t *testing.T) {
	first := Consolidate(laptopRecords())
	second := Consolidate(laptopRecords())

	require.Equal(t, len(first.Items), len(second.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].Key, second.Items[i].Key)
		assert.True(t, first.Items[i].Quantity.Equal(second.Items[i].Quantity))
		assert.True(t, first.Items[i].Value.Equal(second.Items[i].Value))
		require.Equal(t, len(first.Items[i].Breakdown), len(second.Items[i].Breakdown))
		for j := range first.Items[i].Breakdown {
			assert.Equal(t, first.Items[i].Breakdown[j].DemandID, second.Items[i].Breakdown[j].DemandID)
		}
	}
	assert.True(t, first.TotalValue.Equal(second.TotalValue))
}

func TestConsolidateSameDepartmentTwiceKeepsSeparateEntries(t *testing.T) {
	records := []Record{
		{
			ID: "rec-a", Code: "DR-2026-0001", DepartmentID: "dept-edu", DepartmentName: "Education",
			Priority: PriorityMedium,
			Items:    []Item{{ID: "i1", Description: "Chair", Unit: "un", Quantity: d("5"), UnitValue: d("100")}},
		},
		{
			ID: "rec-b", Code: "DR-2026-0002", DepartmentID: "dept-edu", DepartmentName: "Education",
			Priority: PriorityMedium,
			Items:    []Item{{ID: "i2", Description: "Chair", Unit: "un", Quantity: d("3"), UnitValue: d("110")}},
		},
	}

	plan := Consolidate(records)
	require.Len(t, plan.Items, 1)
	require.Len(t, plan.Items[0].Breakdown, 2, "per-record traceability must survive")
	// Same department name: tie broken by record id.
	assert.Equal(t, "rec-a", plan.Items[0].Breakdown[0].DemandID)
	assert.Equal(t, "rec-b", plan.Items[0].Breakdown[1].DemandID)
	assert.Equal(t, 1, plan.DepartmentCount)
}

func TestConsolidateEdgeCases(t *testing.T) {
	records := []Record{
		// No items: contributes nothing, no empty group.
		{ID: "rec-empty", Code: "DR-2026-0001", DepartmentID: "d1", DepartmentName: "Empty", Priority: PriorityLow},
		// Zero quantity: legal placeholder, appears in breakdown with zero contribution.
		{
			ID: "rec-zero", Code: "DR-2026-0002", DepartmentID: "d2", DepartmentName: "Zero",
			Priority: PriorityMedium,
			Items:    []Item{{ID: "i1", Description: "Projector", Unit: "un", Quantity: d("0"), UnitValue: d("2000")}},
		},
	}

	plan := Consolidate(records)
	require.Len(t, plan.Items, 1)
	assert.Empty(t, plan.Skipped)

	item := plan.Items[0]
	assert.True(t, item.Quantity.IsZero())
	assert.True(t, item.Value.IsZero())
	require.Len(t, item.Breakdown, 1)
	assert.Equal(t, "rec-zero", item.Breakdown[0].DemandID)
	assert.Equal(t, 1, plan.DepartmentCount, "empty record must not count its department")
}

func TestConsolidateSkipsCorruptRecord(t *testing.T) {
	records := append(laptopRecords(), Record{
		ID: "rec-bad", Code: "DR-2026-0099", DepartmentID: "d9", DepartmentName: "Broken",
		Priority: PriorityHigh,
		Items:    []Item{{ID: "ix", Description: "Server rack", Unit: "un", Quantity: d("-2"), UnitValue: d("500")}},
	})

	plan := Consolidate(records)

	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "rec-bad", plan.Skipped[0].DemandID)
	assert.Contains(t, plan.Skipped[0].Reason, "negative quantity")

	// The healthy records still consolidate.
	assert.Len(t, plan.Items, 3)
	assert.Equal(t, 3, plan.DepartmentCount)
}

func TestConsolidateOfficialDateAbsentWhenNoneDeclared(t *testing.T) {
	records := []Record{
		{
			ID: "rec-a", Code: "DR-2026-0001", DepartmentID: "d1", DepartmentName: "A",
			Priority: PriorityLow,
			Items:    []Item{{ID: "i1", Description: "Desk", Unit: "un", Quantity: d("1"), UnitValue: d("300")}},
		},
	}

	plan := Consolidate(records)
	require.Len(t, plan.Items, 1)
	assert.Nil(t, plan.Items[0].OfficialDate)
}

func TestKeyNormalization(t *testing.T) {
	assert.Equal(t, Key("Computador Portátil", "UN"), Key("  computador   portátil ", "un"))
	assert.NotEqual(t, Key("Computador Portátil", "UN"), Key("Computador Portátil", "CX"))
}

func TestRatioZeroDenominator(t *testing.T) {
	_, ok := Ratio(d("5"), decimal.Zero)
	assert.False(t, ok, "zero denominator must yield an absent value")

	ratio, ok := Ratio(d("1"), d("4"))
	require.True(t, ok)
	assert.True(t, ratio.Equal(d("0.25")))
}
