package consolidate

import "time"

// Priority of a demand record. Totally ordered: high > medium > low.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
}

// Rank returns the urgency order of a priority; unknown values rank lowest.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Declaration is one record's declared priority and target date for a group.
type Declaration struct {
	Priority Priority
	Date     *time.Time
}

// OfficialPriority picks the most urgent declared priority. A single
// department understating urgency must not suppress a shared urgent need.
// Empty input resolves to medium.
func OfficialPriority(declarations []Declaration) Priority {
	official := PriorityMedium
	first := true
	for _, d := range declarations {
		if first || d.Priority.Rank() > official.Rank() {
			official = d.Priority
			first = false
		}
	}
	return official
}

// OfficialDate picks the earliest declared target date: scheduling must
// satisfy the most time-constrained requester. Returns nil when no record
// declares a date; absence is never defaulted to now or a sentinel.
func OfficialDate(declarations []Declaration) *time.Time {
	var earliest *time.Time
	for _, d := range declarations {
		if d.Date == nil {
			continue
		}
		if earliest == nil || d.Date.Before(*earliest) {
			t := *d.Date
			earliest = &t
		}
	}
	return earliest
}
