package report

import (
	"github.com/schoolerp/backend/internal/application/collection"
	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/report"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/transport"
)

// built is a derived report plus the lookups its export tables need.
type built struct {
	report   report.Summarizer
	students map[string]string
}

// builder derives a module report from its loaded cache.
type builder func(c *collection.Cache, r report.DateRange) (*built, error)

// view decodes one cached collection, wrapping decode failures as load errors.
func view[T any](c *collection.Cache, coll string) ([]T, error) {
	items, err := collection.View[T](c, coll)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeLoadFailed, "Error loading data: "+coll)
	}
	return items, nil
}

func students(c *collection.Cache) ([]school.Student, map[string]string, error) {
	list, err := view[school.Student](c, school.CollectionUsers)
	if err != nil {
		return nil, nil, err
	}
	return list, report.StudentNames(list), nil
}

func buildAccounts(c *collection.Cache, r report.DateRange) (*built, error) {
	var (
		data report.AccountsData
		err  error
	)
	if data.Transactions, err = view[accounts.Transaction](c, accounts.CollectionTransactions); err != nil {
		return nil, err
	}
	if data.Invoices, err = view[accounts.Invoice](c, accounts.CollectionInvoices); err != nil {
		return nil, err
	}
	if data.Chalans, err = view[accounts.FeeChalan](c, accounts.CollectionChalans); err != nil {
		return nil, err
	}
	_, names, err := students(c)
	if err != nil {
		return nil, err
	}
	return &built{report: report.BuildAccounts(data, r), students: names}, nil
}

func buildLibrary(c *collection.Cache, r report.DateRange) (*built, error) {
	var (
		data  report.LibraryData
		names map[string]string
		err   error
	)
	if data.Books, err = view[library.Book](c, library.CollectionBooks); err != nil {
		return nil, err
	}
	if data.Issues, err = view[library.Issue](c, library.CollectionIssues); err != nil {
		return nil, err
	}
	if data.Students, names, err = students(c); err != nil {
		return nil, err
	}
	return &built{report: report.BuildLibrary(data, r), students: names}, nil
}

func buildHostel(c *collection.Cache, r report.DateRange) (*built, error) {
	var (
		data  report.HostelData
		names map[string]string
		err   error
	)
	if data.Rooms, err = view[hostel.Room](c, hostel.CollectionRooms); err != nil {
		return nil, err
	}
	if data.Allocations, err = view[hostel.Allocation](c, hostel.CollectionAllocations); err != nil {
		return nil, err
	}
	if data.Payments, err = view[hostel.Payment](c, hostel.CollectionPayments); err != nil {
		return nil, err
	}
	if data.Students, names, err = students(c); err != nil {
		return nil, err
	}
	return &built{report: report.BuildHostel(data, r), students: names}, nil
}

func buildTransport(c *collection.Cache, r report.DateRange) (*built, error) {
	var (
		data  report.TransportData
		names map[string]string
		err   error
	)
	if data.Vehicles, err = view[transport.Vehicle](c, transport.CollectionVehicles); err != nil {
		return nil, err
	}
	if data.Drivers, err = view[transport.Driver](c, transport.CollectionDrivers); err != nil {
		return nil, err
	}
	if data.Routes, err = view[transport.Route](c, transport.CollectionRoutes); err != nil {
		return nil, err
	}
	if data.Assignments, err = view[transport.Assignment](c, transport.CollectionAssignments); err != nil {
		return nil, err
	}
	if data.Trips, err = view[transport.Trip](c, transport.CollectionTrips); err != nil {
		return nil, err
	}
	if data.Payments, err = view[transport.Payment](c, transport.CollectionPayments); err != nil {
		return nil, err
	}
	if data.Students, names, err = students(c); err != nil {
		return nil, err
	}
	return &built{report: report.BuildTransport(data, r), students: names}, nil
}

func buildCafeteria(c *collection.Cache, r report.DateRange) (*built, error) {
	var (
		data  report.CafeteriaData
		names map[string]string
		err   error
	)
	if data.Menu, err = view[cafeteria.MenuItem](c, cafeteria.CollectionMenu); err != nil {
		return nil, err
	}
	if data.Inventory, err = view[cafeteria.InventoryItem](c, cafeteria.CollectionInventory); err != nil {
		return nil, err
	}
	if data.Orders, err = view[cafeteria.Order](c, cafeteria.CollectionOrders); err != nil {
		return nil, err
	}
	if data.Students, names, err = students(c); err != nil {
		return nil, err
	}
	return &built{report: report.BuildCafeteria(data, r), students: names}, nil
}
