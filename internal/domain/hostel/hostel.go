// Package hostel models rooms, resident allocations and hostel fee payments.
package hostel

import (
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// Collection names
const (
	CollectionRooms       = "hostelRooms"
	CollectionAllocations = "hostelAllocations"
	CollectionPayments    = "hostelPayments"
)

// RoomStatus is exactly available or maintenance.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomMaintenance RoomStatus = "maintenance"
)

// IsValid reports whether s is one of the closed set of values.
func (s RoomStatus) IsValid() bool {
	return s == RoomAvailable || s == RoomMaintenance
}

// AllocationStatus is exactly active or ended.
type AllocationStatus string

const (
	AllocationActive AllocationStatus = "active"
	AllocationEnded  AllocationStatus = "ended"
)

// IsValid reports whether s is one of the closed set of values.
func (s AllocationStatus) IsValid() bool {
	return s == AllocationActive || s == AllocationEnded
}

// PaymentStatus is exactly unpaid or paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// IsValid reports whether s is one of the closed set of values.
func (s PaymentStatus) IsValid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

// Room is a hostel room with a bed capacity.
type Room struct {
	shared.BaseRecord
	RoomNumber string     `json:"roomNumber" validate:"required"`
	Type       string     `json:"type,omitempty"`
	Floor      string     `json:"floor,omitempty"`
	Capacity   int        `json:"capacity" validate:"gte=0"`
	Status     RoomStatus `json:"status,omitempty" validate:"omitempty,oneof=available maintenance"`
}

// Allocation places one student in one room.
type Allocation struct {
	shared.BaseRecord
	StudentID string           `json:"studentId" validate:"required"`
	RoomID    string           `json:"roomId" validate:"required"`
	StartDate string           `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string           `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status    AllocationStatus `json:"status,omitempty" validate:"omitempty,oneof=active ended"`
}

// EffectiveDate is the creation date; allocations carry no report date field.
func (a Allocation) EffectiveDate() string {
	return a.CreatedDate()
}

// EndPatch is the field-level update ending an allocation.
func EndPatch(now time.Time) shared.Document {
	return shared.Document{
		"status":  string(AllocationEnded),
		"endDate": now.UTC().Format(shared.DateLayout),
	}
}

// Payment is a monthly hostel fee.
type Payment struct {
	shared.BaseRecord
	StudentID string        `json:"studentId" validate:"required"`
	Amount    float64       `json:"amount" validate:"gte=0"`
	Month     string        `json:"month,omitempty" validate:"omitempty,datetime=2006-01"`
	Status    PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=unpaid paid"`
	PaidAt    *time.Time    `json:"paidAt,omitempty"`
}

// EffectiveDate returns the payment month, else the creation date.
func (p Payment) EffectiveDate() string {
	return shared.FirstNonEmpty(p.Month, p.CreatedDate())
}

// PaidPatch is the field-level update marking a payment paid.
func PaidPatch(now time.Time) shared.Document {
	return shared.Document{
		"status": string(PaymentPaid),
		"paidAt": now.UTC(),
	}
}
