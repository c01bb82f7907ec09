package records

import (
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/transport"
)

// checker validates a document against its entity struct.
type checker func(v *validator.Validate, doc shared.Document) error

func entity[T any]() checker {
	return func(v *validator.Validate, doc shared.Document) error {
		e, err := shared.DecodeOne[T](doc)
		if err != nil {
			return shared.NewValidationError("Invalid record: %v", err)
		}
		return v.Struct(e)
	}
}

// Collections maps every registered collection to its entity shape.
// Records of any other collection are rejected.
var Collections = map[string]checker{
	school.CollectionUsers:             entity[school.Student](),
	school.CollectionClasses:           entity[school.Class](),
	accounts.CollectionTransactions:    entity[accounts.Transaction](),
	accounts.CollectionInvoices:        entity[accounts.Invoice](),
	accounts.CollectionChalans:         entity[accounts.FeeChalan](),
	accounts.CollectionClassFeeAmounts: entity[accounts.ClassFeeAmount](),
	library.CollectionBooks:            entity[library.Book](),
	library.CollectionIssues:           entity[library.Issue](),
	hostel.CollectionRooms:             entity[hostel.Room](),
	hostel.CollectionAllocations:       entity[hostel.Allocation](),
	hostel.CollectionPayments:          entity[hostel.Payment](),
	transport.CollectionVehicles:       entity[transport.Vehicle](),
	transport.CollectionDrivers:        entity[transport.Driver](),
	transport.CollectionRoutes:         entity[transport.Route](),
	transport.CollectionAssignments:    entity[transport.Assignment](),
	transport.CollectionTrips:          entity[transport.Trip](),
	transport.CollectionPayments:       entity[transport.Payment](),
	cafeteria.CollectionMenu:           entity[cafeteria.MenuItem](),
	cafeteria.CollectionInventory:      entity[cafeteria.InventoryItem](),
	cafeteria.CollectionOrders:         entity[cafeteria.Order](),
}

// Names returns the registered collection names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Collections))
	for n := range Collections {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// NewValidator returns a validator reporting JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
