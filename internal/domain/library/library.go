// Package library models books and their issues to students.
package library

import (
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// Collection names
const (
	CollectionBooks  = "books"
	CollectionIssues = "libraryIssues"
)

// BookStatus is exactly available or unavailable.
type BookStatus string

const (
	BookAvailable   BookStatus = "available"
	BookUnavailable BookStatus = "unavailable"
)

// IsValid reports whether s is one of the closed set of values.
func (s BookStatus) IsValid() bool {
	return s == BookAvailable || s == BookUnavailable
}

// IssueStatus is exactly issued or returned.
type IssueStatus string

const (
	IssueIssued   IssueStatus = "issued"
	IssueReturned IssueStatus = "returned"
)

// IsValid reports whether s is one of the closed set of values.
func (s IssueStatus) IsValid() bool {
	return s == IssueIssued || s == IssueReturned
}

// Book is a catalogue title with a number of physical copies.
type Book struct {
	shared.BaseRecord
	Title    string     `json:"title" validate:"required"`
	Author   string     `json:"author,omitempty"`
	ISBN     string     `json:"isbn,omitempty"`
	Category string     `json:"category,omitempty"`
	Copies   int        `json:"copies" validate:"gte=0"`
	Status   BookStatus `json:"status,omitempty" validate:"omitempty,oneof=available unavailable"`
}

// Issue lends one copy of a book to a student.
type Issue struct {
	shared.BaseRecord
	StudentID  string      `json:"studentId" validate:"required"`
	BookID     string      `json:"bookId" validate:"required"`
	DueDate    string      `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status     IssueStatus `json:"status,omitempty" validate:"omitempty,oneof=issued returned"`
	ReturnedAt *time.Time  `json:"returnedAt,omitempty"`
}

// EffectiveDate returns the due date, else the creation date.
func (i Issue) EffectiveDate() string {
	return shared.FirstNonEmpty(i.DueDate, i.CreatedDate())
}

// Outstanding reports whether the copy is still out.
func (i Issue) Outstanding() bool {
	return i.Status != IssueReturned
}

// Availability summarises a book's copies against its outstanding issues.
type Availability struct {
	BookID         string `json:"bookId"`
	Title          string `json:"title"`
	Copies         int    `json:"copies"`
	IssuedCount    int    `json:"issuedCount"`
	AvailableCount int    `json:"availableCount"`
}

// Availability counts outstanding issues of b. AvailableCount is clamped at
// zero when copies were reduced below the number still out.
func (b Book) Availability(issues []Issue) Availability {
	issued := 0
	for _, is := range issues {
		if is.BookID == b.ID && is.Outstanding() {
			issued++
		}
	}
	return Availability{
		BookID:         b.ID,
		Title:          b.Title,
		Copies:         b.Copies,
		IssuedCount:    issued,
		AvailableCount: max(0, b.Copies-issued),
	}
}

// ReturnPatch is the field-level update closing an issue.
func ReturnPatch(now time.Time) shared.Document {
	return shared.Document{
		"status":     string(IssueReturned),
		"returnedAt": now.UTC(),
	}
}
