package report

import (
	"fmt"
	"testing"

	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/library"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/domain/transport"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string) shared.BaseRecord { return shared.BaseRecord{ID: id} }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestNewDateRange(t *testing.T) {
	r, err := NewDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01..2024-01-31", r.Key())

	_, err = NewDateRange("2024-02-01", "2024-01-01")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewDateRange("01/02/2024", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	open, err := NewDateRange("", "")
	require.NoError(t, err)
	assert.True(t, open.IsZero())
}

func TestDateRange_Contains(t *testing.T) {
	jan := DateRange{Start: "2024-01-01", End: "2024-01-31"}

	tests := []struct {
		name string
		r    DateRange
		date string
		want bool
	}{
		{"start boundary inclusive", jan, "2024-01-01", true},
		{"end boundary inclusive", jan, "2024-01-31", true},
		{"day after end", jan, "2024-02-01", false},
		{"month compares as first day", jan, "2024-01", true},
		{"previous month", jan, "2023-12", false},
		{"month before mid-month start", DateRange{Start: "2024-03-10"}, "2024-03", false},
		{"month on or after first-day start", DateRange{Start: "2024-03-01"}, "2024-03", true},
		{"empty date fails bounded range", jan, "", false},
		{"empty date passes unbounded range", DateRange{}, "", true},
		{"open start", DateRange{End: "2024-01-31"}, "1999-05-05", true},
		{"open end", DateRange{Start: "2024-01-01"}, "2030-05-05", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Contains(tt.date))
		})
	}
}

func TestBuildAccounts_CategoryBreakdown(t *testing.T) {
	data := AccountsData{Transactions: []accounts.Transaction{
		{BaseRecord: rec("t1"), Type: accounts.TransactionIncome, Category: "fee", Amount: 1000, Date: "2024-01-05"},
		{BaseRecord: rec("t2"), Type: accounts.TransactionExpense, Category: "fee", Amount: 200, Date: "2024-01-06"},
		{BaseRecord: rec("t3"), Type: accounts.TransactionIncome, Category: "other", Amount: 500, Date: "2024-02-01"},
	}}

	rep := BuildAccounts(data, DateRange{})

	assertDecimal(t, "1500", rep.TotalIncome)
	assertDecimal(t, "200", rep.TotalExpense)
	assertDecimal(t, "1300", rep.NetProfit)
	assertDecimal(t, "86.67", rep.ProfitMargin)
	assert.Equal(t, 3, rep.TransactionCount)

	require.Len(t, rep.ByCategory, 2)
	assert.Equal(t, "fee", rep.ByCategory[0].Category)
	assertDecimal(t, "1000", rep.ByCategory[0].Income)
	assertDecimal(t, "200", rep.ByCategory[0].Expense)
	assert.Equal(t, "other", rep.ByCategory[1].Category)
	assertDecimal(t, "500", rep.ByCategory[1].Income)
	assertDecimal(t, "0", rep.ByCategory[1].Expense)

	require.Len(t, rep.ByMonth, 2)
	assert.Equal(t, "2024-01", rep.ByMonth[0].Month)
	assertDecimal(t, "800", rep.ByMonth[0].Net)
	assert.Equal(t, "2024-02", rep.ByMonth[1].Month)
}

func TestBuildAccounts_ZeroIncomeMargin(t *testing.T) {
	data := AccountsData{Transactions: []accounts.Transaction{
		{BaseRecord: rec("t1"), Type: accounts.TransactionExpense, Category: "rent", Amount: 300, Date: "2024-01-05"},
	}}

	rep := BuildAccounts(data, DateRange{})

	assertDecimal(t, "0", rep.ProfitMargin)
	assertDecimal(t, "-300", rep.NetProfit)

	empty := BuildAccounts(AccountsData{}, DateRange{})
	assertDecimal(t, "0", empty.ProfitMargin)
	assertDecimal(t, "0", empty.Invoices.CollectionRate)
	assert.Len(t, empty.ByType, 2)
}

func TestBuildAccounts_RangeAndFallbacks(t *testing.T) {
	data := AccountsData{
		Transactions: []accounts.Transaction{
			{BaseRecord: rec("t1"), Type: accounts.TransactionIncome, Amount: 100, Date: "2024-01-01"},
			{BaseRecord: rec("t2"), Type: accounts.TransactionIncome, Category: "fee", Amount: 100, Date: "2024-01-31"},
			{BaseRecord: rec("t3"), Type: accounts.TransactionIncome, Category: "fee", Amount: 100, Date: "2024-02-01"},
		},
		Invoices: []accounts.Invoice{
			{BaseRecord: rec("i1"), StudentID: "s1", Amount: 400, DueDate: "2024-01-10", Status: accounts.InvoicePaid},
			{BaseRecord: rec("i2"), StudentID: "s2", Amount: 100, DueDate: "2024-01-20"},
		},
	}

	rep := BuildAccounts(data, DateRange{Start: "2024-01-01", End: "2024-01-31"})

	assert.Equal(t, 2, rep.TransactionCount)
	require.Len(t, rep.ByCategory, 2)
	assert.Equal(t, Uncategorized, rep.ByCategory[0].Category)

	assert.Equal(t, 2, rep.Invoices.Total.Count)
	assertDecimal(t, "400", rep.Invoices.Collected)
	assertDecimal(t, "100", rep.Invoices.Outstanding)
	assertDecimal(t, "80", rep.Invoices.CollectionRate)

	var unknown bool
	for _, b := range rep.Invoices.ByStatus {
		if b.Key == Unknown {
			unknown = true
			assert.Equal(t, 1, b.Count)
		}
	}
	assert.True(t, unknown, "invoice without status lands in the unknown bucket")
}

func TestBuildAccounts_Idempotent(t *testing.T) {
	data := AccountsData{
		Transactions: []accounts.Transaction{
			{BaseRecord: rec("t1"), Type: accounts.TransactionIncome, Category: "fee", Amount: 1000, Date: "2024-01-05"},
			{BaseRecord: rec("t2"), Type: accounts.TransactionExpense, Category: "salary", Amount: 400, Date: "2024-01-06"},
		},
		Chalans: []accounts.FeeChalan{
			{BaseRecord: rec("c1"), StudentID: "s1", DueDate: "2024-01-10", Status: accounts.ChalanPending, Fees: accounts.ChalanFees{TotalAmount: 500}},
		},
	}
	r := DateRange{Start: "2024-01-01", End: "2024-12-31"}

	first := BuildAccounts(data, r)
	second := BuildAccounts(data, r)

	assert.Equal(t, first.Summary(), second.Summary())
	assert.Equal(t, first.ByCategory, second.ByCategory)
	assertDecimal(t, "500", first.Chalans.Outstanding)
}

func TestBuildLibrary(t *testing.T) {
	data := LibraryData{
		Books: []library.Book{
			{BaseRecord: rec("b1"), Title: "Go", Category: "tech", Copies: 2, Status: library.BookAvailable},
			{BaseRecord: rec("b2"), Title: "Poems", Copies: 1, Status: library.BookAvailable},
		},
		Issues: []library.Issue{
			{BaseRecord: rec("x1"), StudentID: "s1", BookID: "b1", DueDate: "2024-03-01", Status: library.IssueIssued},
			{BaseRecord: rec("x2"), StudentID: "s2", BookID: "b1", DueDate: "2024-03-02", Status: library.IssueIssued},
			{BaseRecord: rec("x3"), StudentID: "s3", BookID: "b1", DueDate: "2024-03-03", Status: library.IssueIssued},
			{BaseRecord: rec("x4"), StudentID: "s1", BookID: "b2", DueDate: "2024-03-04", Status: library.IssueReturned},
		},
	}

	rep := BuildLibrary(data, DateRange{})

	assert.Equal(t, 2, rep.TotalTitles)
	assert.Equal(t, 3, rep.TotalCopies)
	assert.Equal(t, 4, rep.IssuesInPeriod)
	assert.Equal(t, 1, rep.ReturnedInPeriod)
	require.Len(t, rep.Availability, 2)
	assert.Equal(t, 0, rep.Availability[0].AvailableCount, "over-issued books clamp at zero")
	require.NotEmpty(t, rep.MostIssued)
	assert.Equal(t, "Go", rep.MostIssued[0].Name)
	assert.Equal(t, 3, rep.MostIssued[0].Count)

	var uncategorized bool
	for _, b := range rep.BooksByCategory {
		uncategorized = uncategorized || b.Key == Uncategorized
	}
	assert.True(t, uncategorized)
}

func TestBuildHostel_NoRooms(t *testing.T) {
	rep := BuildHostel(HostelData{}, DateRange{})

	assert.Equal(t, 0, rep.TotalRooms)
	assertDecimal(t, "0", rep.Utilization)
	assertDecimal(t, "0", rep.OccupancyRate)
	assert.Equal(t, 0, rep.AvailableBeds)
}

func TestBuildHostel_Occupancy(t *testing.T) {
	data := HostelData{
		Rooms: []hostel.Room{
			{BaseRecord: rec("r1"), RoomNumber: "101", Capacity: 2, Status: hostel.RoomAvailable},
			{BaseRecord: rec("r2"), RoomNumber: "102", Capacity: 2, Status: hostel.RoomMaintenance},
		},
		Allocations: []hostel.Allocation{
			{BaseRecord: rec("a1"), StudentID: "s1", RoomID: "r1", Status: hostel.AllocationActive},
			{BaseRecord: rec("a2"), StudentID: "s2", RoomID: "r1", Status: hostel.AllocationEnded},
		},
		Payments: []hostel.Payment{
			{BaseRecord: rec("p1"), StudentID: "s1", Amount: 3000, Month: "2024-01", Status: hostel.PaymentPaid},
			{BaseRecord: rec("p2"), StudentID: "s1", Amount: 3000, Month: "2024-02", Status: hostel.PaymentUnpaid},
		},
	}

	rep := BuildHostel(data, DateRange{Start: "2024-01-01", End: "2024-01-31"})

	assert.Equal(t, 4, rep.TotalCapacity)
	assert.Equal(t, 1, rep.OccupiedBeds)
	assert.Equal(t, 3, rep.AvailableBeds)
	assertDecimal(t, "25", rep.Utilization)
	assertDecimal(t, "50", rep.OccupancyRate)
	assert.Equal(t, 1, rep.PaymentsSummary.Total.Count)
	assertDecimal(t, "3000", rep.PaymentsSummary.Collected)
	assert.Equal(t, "101", rep.RoomNumbers["r1"])
}

func TestBuildTransport(t *testing.T) {
	data := TransportData{
		Routes: []transport.Route{{BaseRecord: rec("rt1"), Name: "North"}, {BaseRecord: rec("rt2"), Name: "South"}},
		Assignments: []transport.Assignment{
			{BaseRecord: rec("as1"), Status: transport.AssignmentActive},
			{BaseRecord: rec("as2"), Status: transport.AssignmentInactive},
			{BaseRecord: rec("as3"), Status: transport.AssignmentActive},
		},
		Trips: []transport.Trip{
			{BaseRecord: rec("t1"), RouteID: "rt2", Date: "2024-01-02", TripType: transport.TripMorning, Status: transport.TripCompleted},
			{BaseRecord: rec("t2"), RouteID: "rt2", Date: "2024-01-03", TripType: transport.TripEvening, Status: transport.TripDelayed},
			{BaseRecord: rec("t3"), RouteID: "rt1", Date: "2024-01-04", TripType: transport.TripMorning, Status: transport.TripCompleted},
			{BaseRecord: rec("t4"), RouteID: "rt1", Date: "2024-01-05", TripType: transport.TripMorning, Status: transport.TripCompleted},
		},
		Payments: []transport.Payment{
			{BaseRecord: rec("p1"), Amount: 150, PaymentDate: "2024-01-09", Status: transport.PaymentPaid},
		},
	}

	rep := BuildTransport(data, DateRange{})

	assert.Equal(t, 2, rep.ActiveAssignments)
	assert.Equal(t, 1, rep.InactiveAssignments)
	assert.Equal(t, 4, rep.TotalTrips)
	assertDecimal(t, "75", rep.OnTimeRate)
	assert.Len(t, rep.TripsByStatus, 3)
	assert.Len(t, rep.TripsByType, 3)
	require.Len(t, rep.BusiestRoutes, 2)
	assert.Equal(t, "North", rep.BusiestRoutes[0].Name, "equal counts break ties by key")
	assertDecimal(t, "150", rep.PaymentsSummary.Collected)
}

func TestBuildCafeteria(t *testing.T) {
	data := CafeteriaData{
		Menu: []cafeteria.MenuItem{
			{BaseRecord: rec("m1"), Name: "Samosa", Category: "snacks", Price: 30},
			{BaseRecord: rec("m2"), Name: "Tea", Category: "drinks", Price: 20},
		},
		Inventory: []cafeteria.InventoryItem{
			{BaseRecord: rec("inv1"), Name: "Flour", Quantity: 2, MinQuantity: 5, CostPerUnit: 50},
			{BaseRecord: rec("inv2"), Name: "Sugar", Quantity: 10, MinQuantity: 5, CostPerUnit: 10},
		},
		Orders: []cafeteria.Order{
			{BaseRecord: rec("o1"), ItemID: "m1", Quantity: 3, Status: cafeteria.OrderPaid},
			{BaseRecord: rec("o2"), ItemID: "m2", Quantity: 5, Status: cafeteria.OrderPending},
			{BaseRecord: rec("o3"), ItemID: "gone", Quantity: 1, Status: cafeteria.OrderPaid},
		},
	}

	rep := BuildCafeteria(data, DateRange{})

	assert.Equal(t, 3, rep.TotalOrders)
	assertDecimal(t, "90", rep.Revenue)
	assertDecimal(t, "100", rep.PendingAmount)
	assertDecimal(t, "200", rep.InventoryValue)
	require.Len(t, rep.LowStock, 1)
	assert.Equal(t, "Flour", rep.LowStock[0].Name)
	require.Len(t, rep.TopItems, 3)
	assert.Equal(t, "Tea", rep.TopItems[0].Name)
	assert.Equal(t, "gone", rep.TopItems[2].Name, "orders for deleted items keep their id")
}

func TestRank_TopTen(t *testing.T) {
	b := NewBreakdown()
	for i := range 12 {
		for range i + 1 {
			b.Add(fmt.Sprintf("k%02d", i), decimal.Zero)
		}
	}

	top := Rank(b.ByCountDesc(), 10, func(id string) string { return "name-" + id })

	require.Len(t, top, 10)
	assert.Equal(t, "k11", top[0].ID)
	assert.Equal(t, 12, top[0].Count)
	assert.Equal(t, "name-k02", top[9].Name)
}
