package shared

import "time"

// DateLayout is the ISO calendar date format used for every stored date field.
const DateLayout = "2006-01-02"

// MonthLayout is the YYYY-MM format used for monthly fields.
const MonthLayout = "2006-01"

// BaseRecord carries the store-managed fields every document has.
type BaseRecord struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// GetID returns the document ID
func (r BaseRecord) GetID() string {
	return r.ID
}

// CreatedDate returns the creation timestamp truncated to a UTC calendar date,
// or "" when the store has not stamped one.
func (r BaseRecord) CreatedDate() string {
	if r.CreatedAt.IsZero() {
		return ""
	}
	return r.CreatedAt.UTC().Format(DateLayout)
}

// FirstNonEmpty returns the first non-empty string. It backs the
// effective-date rule: explicit date field first, creation date last.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsISODate reports whether s is a YYYY-MM-DD calendar date.
func IsISODate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsISOMonth reports whether s is a YYYY-MM month.
func IsISOMonth(s string) bool {
	_, err := time.Parse(MonthLayout, s)
	return err == nil
}
