// Package transport models the school fleet and its use.
package transport

import (
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// Collection names
const (
	CollectionVehicles    = "vehicles"
	CollectionDrivers     = "drivers"
	CollectionRoutes      = "routes"
	CollectionAssignments = "transportAssignments"
	CollectionTrips       = "trips"
	CollectionPayments    = "transportPayments"
)

// AssignmentStatus is exactly active or inactive.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "active"
	AssignmentInactive AssignmentStatus = "inactive"
)

// IsValid reports whether s is one of the closed set of values.
func (s AssignmentStatus) IsValid() bool {
	return s == AssignmentActive || s == AssignmentInactive
}

// Toggled returns the opposite status.
func (s AssignmentStatus) Toggled() AssignmentStatus {
	if s == AssignmentActive {
		return AssignmentInactive
	}
	return AssignmentActive
}

// TripType is exactly morning, afternoon or evening.
type TripType string

const (
	TripMorning   TripType = "morning"
	TripAfternoon TripType = "afternoon"
	TripEvening   TripType = "evening"
)

// IsValid reports whether t is one of the closed set of values.
func (t TripType) IsValid() bool {
	switch t {
	case TripMorning, TripAfternoon, TripEvening:
		return true
	}
	return false
}

// TripStatus is exactly completed, delayed or cancelled.
type TripStatus string

const (
	TripCompleted TripStatus = "completed"
	TripDelayed   TripStatus = "delayed"
	TripCancelled TripStatus = "cancelled"
)

// IsValid reports whether s is one of the closed set of values.
func (s TripStatus) IsValid() bool {
	switch s {
	case TripCompleted, TripDelayed, TripCancelled:
		return true
	}
	return false
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

// Vehicle is a bus or van.
type Vehicle struct {
	shared.BaseRecord
	RegistrationNo string `json:"registrationNo" validate:"required"`
	Model          string `json:"model,omitempty"`
	Capacity       int    `json:"capacity" validate:"gte=0"`
	Status         string `json:"status,omitempty"`
}

// Driver operates vehicles.
type Driver struct {
	shared.BaseRecord
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone,omitempty"`
	LicenseNo string `json:"licenseNo,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Route is a named pickup path.
type Route struct {
	shared.BaseRecord
	Name  string   `json:"name" validate:"required"`
	Stops []string `json:"stops,omitempty"`
	Fare  float64  `json:"fare" validate:"gte=0"`
}

// Assignment links one student to one vehicle, driver and route.
type Assignment struct {
	shared.BaseRecord
	StudentID string           `json:"studentId" validate:"required"`
	VehicleID string           `json:"vehicleId" validate:"required"`
	DriverID  string           `json:"driverId" validate:"required"`
	RouteID   string           `json:"routeId" validate:"required"`
	Status    AssignmentStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// Trip records one traversal of a route.
type Trip struct {
	shared.BaseRecord
	VehicleID string     `json:"vehicleId" validate:"required"`
	DriverID  string     `json:"driverId" validate:"required"`
	RouteID   string     `json:"routeId" validate:"required"`
	Date      string     `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TripType  TripType   `json:"tripType,omitempty" validate:"omitempty,oneof=morning afternoon evening"`
	Status    TripStatus `json:"status,omitempty" validate:"omitempty,oneof=completed delayed cancelled"`
	Notes     string     `json:"notes,omitempty"`
}

// EffectiveDate returns the trip date, else the creation date.
func (t Trip) EffectiveDate() string {
	return shared.FirstNonEmpty(t.Date, t.CreatedDate())
}

// Payment is a transport fee.
type Payment struct {
	shared.BaseRecord
	StudentID   string        `json:"studentId" validate:"required"`
	Amount      float64       `json:"amount" validate:"gte=0"`
	Month       string        `json:"month,omitempty" validate:"omitempty,datetime=2006-01"`
	PaymentDate string        `json:"paymentDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status      PaymentStatus `json:"status,omitempty" validate:"omitempty,oneof=unpaid paid"`
}

// EffectiveDate follows the explicit-field precedence: month, then
// paymentDate, then the creation date.
func (p Payment) EffectiveDate() string {
	return shared.FirstNonEmpty(p.Month, p.PaymentDate, p.CreatedDate())
}

// PaidPatch is the field-level update marking a payment paid.
func PaidPatch(now time.Time) shared.Document {
	return shared.Document{
		"status":      string(PaymentPaid),
		"paymentDate": now.UTC().Format(shared.DateLayout),
	}
}

// TogglePatch flips an assignment between active and inactive.
func TogglePatch(current AssignmentStatus) shared.Document {
	return shared.Document{"status": string(current.Toggled())}
}
