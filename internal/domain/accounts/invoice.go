package accounts

import (
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// InvoiceStatus is exactly unpaid or paid.
type InvoiceStatus string

const (
	InvoiceUnpaid InvoiceStatus = "unpaid"
	InvoicePaid   InvoiceStatus = "paid"
)

// IsValid reports whether s is one of the closed set of values.
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceUnpaid || s == InvoicePaid
}

// Invoice bills a student a single amount.
type Invoice struct {
	shared.BaseRecord
	StudentID   string        `json:"studentId" validate:"required"`
	Amount      float64       `json:"amount" validate:"gte=0"`
	DueDate     string        `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status      InvoiceStatus `json:"status,omitempty" validate:"omitempty,oneof=unpaid paid"`
	PaidAt      *time.Time    `json:"paidAt,omitempty"`
	Description string        `json:"description,omitempty"`
}

// EffectiveDate returns the due date, else the creation date.
func (i Invoice) EffectiveDate() string {
	return shared.FirstNonEmpty(i.DueDate, i.CreatedDate())
}

// MarkPaidPatch is the field-level update turning an invoice paid.
// The previous status is not checked: writes are last-write-wins.
func MarkPaidPatch(now time.Time) shared.Document {
	return shared.Document{
		"status": string(InvoicePaid),
		"paidAt": now.UTC(),
	}
}
