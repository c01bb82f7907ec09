package report

import (
	"github.com/schoolerp/backend/internal/domain/shared"
)

// DateRange is an inclusive ISO date filter. An empty bound is unbounded.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewDateRange validates both bounds as YYYY-MM-DD when set.
func NewDateRange(start, end string) (DateRange, error) {
	if start != "" && !shared.IsISODate(start) {
		return DateRange{}, shared.NewValidationError("start date must be YYYY-MM-DD, got %q", start)
	}
	if end != "" && !shared.IsISODate(end) {
		return DateRange{}, shared.NewValidationError("end date must be YYYY-MM-DD, got %q", end)
	}
	if start != "" && end != "" && start > end {
		return DateRange{}, shared.NewValidationError("start date %s is after end date %s", start, end)
	}
	return DateRange{Start: start, End: end}, nil
}

// IsZero reports whether the range is unbounded on both sides.
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Contains reports whether an effective date falls in the range. A bare
// YYYY-MM month compares as the first day of that month; a record with no
// effective date only passes an unbounded range.
func (r DateRange) Contains(date string) bool {
	if r.IsZero() {
		return true
	}
	if len(date) == len(shared.MonthLayout) {
		date += "-01"
	}
	if date == "" {
		return false
	}
	return (r.Start == "" || date >= r.Start) && (r.End == "" || date <= r.End)
}

// Key is a stable cache key fragment.
func (r DateRange) Key() string {
	return r.Start + ".." + r.End
}
