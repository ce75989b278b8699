package consolidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfficialPriorityPicksMostUrgent(t *testing.T) {
	declarations := []Declaration{
		{Priority: PriorityLow},
		{Priority: PriorityHigh},
		{Priority: PriorityMedium},
	}
	assert.Equal(t, PriorityHigh, OfficialPriority(declarations))
}

func TestOfficialPrioritySingleDeclaration(t *testing.T) {
	assert.Equal(t, PriorityLow, OfficialPriority([]Declaration{{Priority: PriorityLow}}))
}

func TestOfficialPriorityEmptyDefaultsToMedium(t *testing.T) {
	assert.Equal(t, PriorityMedium, OfficialPriority(nil))
}

func TestOfficialPriorityUnknownValueRanksLowest(t *testing.T) {
	declarations := []Declaration{
		{Priority: Priority("urgent???")},
		{Priority: PriorityLow},
	}
	assert.Equal(t, PriorityLow, OfficialPriority(declarations))
}

func TestOfficialDatePicksEarliest(t *testing.T) {
	declarations := []Declaration{
		{Priority: PriorityMedium, Date: date("2025-06-01")},
		{Priority: PriorityMedium, Date: date("2025-03-15")},
		{Priority: PriorityMedium, Date: date("2025-09-01")},
	}

	got := OfficialDate(declarations)
	require.NotNil(t, got)
	assert.Equal(t, *date("2025-03-15"), *got)
}

func TestOfficialDateIgnoresMissingDates(t *testing.T) {
	declarations := []Declaration{
		{Priority: PriorityMedium},
		{Priority: PriorityMedium, Date: date("2025-05-20")},
		{Priority: PriorityMedium},
	}

	got := OfficialDate(declarations)
	require.NotNil(t, got)
	assert.Equal(t, *date("2025-05-20"), *got)
}

func TestOfficialDateNilWhenNoneDeclared(t *testing.T) {
	assert.Nil(t, OfficialDate([]Declaration{{Priority: PriorityHigh}, {Priority: PriorityLow}}))
	assert.Nil(t, OfficialDate(nil))
}

func TestOfficialDateDoesNotAliasInput(t *testing.T) {
	original := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	input := original

	got := OfficialDate([]Declaration{{Priority: PriorityMedium, Date: &input}})
	require.NotNil(t, got)

	*got = got.AddDate(1, 0, 0)
	assert.Equal(t, original, input, "resolution must copy the declared date")
}
