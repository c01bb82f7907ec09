package report

import (
	"strconv"

	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/report"
	"github.com/schoolerp/backend/internal/domain/transport"
	"github.com/schoolerp/backend/internal/infrastructure/export"
	"github.com/shopspring/decimal"
)

// Export kinds
const (
	KindSummary      = "summary"
	KindTransactions = "transactions"
	KindInvoices     = "invoices"
	KindChalans      = "chalans"
	KindBooks        = "books"
	KindIssues       = "issues"
	KindResidents    = "residents"
	KindPayments     = "payments"
	KindTrips        = "trips"
	KindOrders       = "orders"
	KindInventory    = "inventory"
)

// tableFunc renders one export kind of a built report.
type tableFunc func(b *built) export.Table

func num(v float64) string { return decimal.NewFromFloat(v).String() }

func name(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

func summaryTable(b *built) export.Table {
	return export.BuildTable("Summary", []export.Column[report.Metric]{
		{Header: "Metric", Value: func(m report.Metric) string { return m.Name }},
		{Header: "Value", Value: func(m report.Metric) string { return m.Value }},
	}, b.report.Summary())
}

// =============================================================================
// Accounts
// =============================================================================

func transactionsTable(b *built) export.Table {
	rep := b.report.(*report.AccountsReport)
	return export.BuildTable("Transactions", []export.Column[accounts.Transaction]{
		{Header: "Date", Value: accounts.Transaction.EffectiveDate},
		{Header: "Type", Value: func(t accounts.Transaction) string { return string(t.Type) }},
		{Header: "Category", Value: func(t accounts.Transaction) string { return t.Category }},
		{Header: "Amount", Value: func(t accounts.Transaction) string { return num(t.Amount) }},
		{Header: "Description", Value: func(t accounts.Transaction) string { return t.Description }},
	}, rep.Transactions)
}

func invoicesTable(b *built) export.Table {
	rep := b.report.(*report.AccountsReport)
	return export.BuildTable("Invoices", []export.Column[accounts.Invoice]{
		{Header: "Student", Value: func(i accounts.Invoice) string { return name(b.students, i.StudentID) }},
		{Header: "Amount", Value: func(i accounts.Invoice) string { return num(i.Amount) }},
		{Header: "Due Date", Value: func(i accounts.Invoice) string { return i.DueDate }},
		{Header: "Status", Value: func(i accounts.Invoice) string { return string(i.Status) }},
		{Header: "Description", Value: func(i accounts.Invoice) string { return i.Description }},
	}, rep.InvoiceRecords)
}

func chalansTable(b *built) export.Table {
	rep := b.report.(*report.AccountsReport)
	return export.BuildTable("Chalans", []export.Column[accounts.FeeChalan]{
		{Header: "Chalan Number", Value: func(c accounts.FeeChalan) string { return c.ChalanNumber }},
		{Header: "Student", Value: func(c accounts.FeeChalan) string {
			return name(b.students, c.StudentID)
		}},
		{Header: "Due Date", Value: func(c accounts.FeeChalan) string { return c.DueDate }},
		{Header: "Total", Value: func(c accounts.FeeChalan) string { return num(c.Fees.TotalAmount) }},
		{Header: "Status", Value: func(c accounts.FeeChalan) string { return string(c.Status) }},
		{Header: "Amount Received", Value: func(c accounts.FeeChalan) string {
			if c.Payment == nil {
				return ""
			}
			return num(c.Payment.AmountReceived)
		}},
	}, rep.ChalanRecords)
}

// =============================================================================
// Library
// =============================================================================

func booksTable(b *built) export.Table {
	rep := b.report.(*report.LibraryReport)
	avail := make(map[string]library.Availability, len(rep.Availability))
	for _, a := range rep.Availability {
		avail[a.BookID] = a
	}
	return export.BuildTable("Books", []export.Column[library.Book]{
		{Header: "Title", Value: func(bk library.Book) string { return bk.Title }},
		{Header: "Author", Value: func(bk library.Book) string { return bk.Author }},
		{Header: "ISBN", Value: func(bk library.Book) string { return bk.ISBN }},
		{Header: "Category", Value: func(bk library.Book) string { return bk.Category }},
		{Header: "Copies", Value: func(bk library.Book) string { return strconv.Itoa(bk.Copies) }},
		{Header: "Issued", Value: func(bk library.Book) string { return strconv.Itoa(avail[bk.ID].IssuedCount) }},
		{Header: "Available", Value: func(bk library.Book) string { return strconv.Itoa(avail[bk.ID].AvailableCount) }},
	}, rep.Books)
}

func issuesTable(b *built) export.Table {
	rep := b.report.(*report.LibraryReport)
	titles := make(map[string]string, len(rep.Books))
	for _, bk := range rep.Books {
		titles[bk.ID] = bk.Title
	}
	return export.BuildTable("Issues", []export.Column[library.Issue]{
		{Header: "Book", Value: func(i library.Issue) string { return name(titles, i.BookID) }},
		{Header: "Student", Value: func(i library.Issue) string { return name(b.students, i.StudentID) }},
		{Header: "Issued On", Value: func(i library.Issue) string { return i.CreatedDate() }},
		{Header: "Due Date", Value: func(i library.Issue) string { return i.DueDate }},
		{Header: "Status", Value: func(i library.Issue) string { return string(i.Status) }},
	}, rep.IssueRecords)
}

// =============================================================================
// Hostel
// =============================================================================

func residentsTable(b *built) export.Table {
	rep := b.report.(*report.HostelReport)
	return export.BuildTable("Residents", []export.Column[hostel.Allocation]{
		{Header: "Student", Value: func(a hostel.Allocation) string { return name(b.students, a.StudentID) }},
		{Header: "Room", Value: func(a hostel.Allocation) string { return name(rep.RoomNumbers, a.RoomID) }},
		{Header: "Start Date", Value: func(a hostel.Allocation) string { return a.StartDate }},
		{Header: "End Date", Value: func(a hostel.Allocation) string { return a.EndDate }},
		{Header: "Status", Value: func(a hostel.Allocation) string { return string(a.Status) }},
	}, rep.Residents)
}

func hostelPaymentsTable(b *built) export.Table {
	rep := b.report.(*report.HostelReport)
	return export.BuildTable("Payments", []export.Column[hostel.Payment]{
		{Header: "Student", Value: func(p hostel.Payment) string { return name(b.students, p.StudentID) }},
		{Header: "Month", Value: func(p hostel.Payment) string { return p.Month }},
		{Header: "Amount", Value: func(p hostel.Payment) string { return num(p.Amount) }},
		{Header: "Status", Value: func(p hostel.Payment) string { return string(p.Status) }},
	}, rep.PaymentRecords)
}

// =============================================================================
// Transport
// =============================================================================

func tripsTable(b *built) export.Table {
	rep := b.report.(*report.TransportReport)
	return export.BuildTable("Trips", []export.Column[transport.Trip]{
		{Header: "Date", Value: transport.Trip.EffectiveDate},
		{Header: "Route", Value: func(t transport.Trip) string { return name(rep.RouteNames, t.RouteID) }},
		{Header: "Vehicle", Value: func(t transport.Trip) string { return name(rep.VehicleNumbers, t.VehicleID) }},
		{Header: "Driver", Value: func(t transport.Trip) string { return name(rep.DriverNames, t.DriverID) }},
		{Header: "Type", Value: func(t transport.Trip) string { return string(t.TripType) }},
		{Header: "Status", Value: func(t transport.Trip) string { return string(t.Status) }},
		{Header: "Notes", Value: func(t transport.Trip) string { return t.Notes }},
	}, rep.TripRecords)
}

func transportPaymentsTable(b *built) export.Table {
	rep := b.report.(*report.TransportReport)
	return export.BuildTable("Payments", []export.Column[transport.Payment]{
		{Header: "Student", Value: func(p transport.Payment) string { return name(b.students, p.StudentID) }},
		{Header: "Month", Value: func(p transport.Payment) string { return p.Month }},
		{Header: "Amount", Value: func(p transport.Payment) string { return num(p.Amount) }},
		{Header: "Payment Date", Value: func(p transport.Payment) string { return p.PaymentDate }},
		{Header: "Status", Value: func(p transport.Payment) string { return string(p.Status) }},
	}, rep.PaymentRecords)
}

// =============================================================================
// Cafeteria
// =============================================================================

func ordersTable(b *built) export.Table {
	rep := b.report.(*report.CafeteriaReport)
	item := func(o cafeteria.Order) *cafeteria.MenuItem { return rep.MenuIndex[o.ItemID] }
	return export.BuildTable("Orders", []export.Column[cafeteria.Order]{
		{Header: "Date", Value: cafeteria.Order.EffectiveDate},
		{Header: "Item", Value: func(o cafeteria.Order) string {
			if m := item(o); m != nil {
				return m.Name
			}
			return o.ItemID
		}},
		{Header: "Student", Value: func(o cafeteria.Order) string {
			if o.StudentID == "" {
				return ""
			}
			return name(b.students, o.StudentID)
		}},
		{Header: "Quantity", Value: func(o cafeteria.Order) string { return strconv.Itoa(o.Quantity) }},
		{Header: "Total", Value: func(o cafeteria.Order) string { return o.Total(item(o)).String() }},
		{Header: "Status", Value: func(o cafeteria.Order) string { return string(o.Status) }},
	}, rep.OrderRecords)
}

func inventoryTable(b *built) export.Table {
	rep := b.report.(*report.CafeteriaReport)
	return export.BuildTable("Inventory", []export.Column[cafeteria.InventoryItem]{
		{Header: "Item", Value: func(i cafeteria.InventoryItem) string { return i.Name }},
		{Header: "Unit", Value: func(i cafeteria.InventoryItem) string { return i.Unit }},
		{Header: "Quantity", Value: func(i cafeteria.InventoryItem) string { return num(i.Quantity) }},
		{Header: "Min Quantity", Value: func(i cafeteria.InventoryItem) string { return num(i.MinQuantity) }},
		{Header: "Cost Per Unit", Value: func(i cafeteria.InventoryItem) string { return num(i.CostPerUnit) }},
		{Header: "Low Stock", Value: func(i cafeteria.InventoryItem) string { return strconv.FormatBool(i.LowStock()) }},
	}, rep.Inventory)
}
