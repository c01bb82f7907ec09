package report

import (
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/shopspring/decimal"
)

// Hostel datasets
var (
	AllocationDataset = Dataset[hostel.Allocation]{
		Name: hostel.CollectionAllocations,
		Date: hostel.Allocation.EffectiveDate,
	}
	HostelPaymentDataset = Dataset[hostel.Payment]{
		Name:   hostel.CollectionPayments,
		Date:   hostel.Payment.EffectiveDate,
		Amount: func(p hostel.Payment) decimal.Decimal { return Amount(p.Amount) },
	}
)

// HostelData is the cached input of the hostel report.
type HostelData struct {
	Rooms       []hostel.Room
	Allocations []hostel.Allocation
	Payments    []hostel.Payment
	Students    []school.Student
}

// HostelReport is the derived hostel view for a date range.
type HostelReport struct {
	Range           DateRange       `json:"range"`
	TotalRooms      int             `json:"totalRooms"`
	RoomsByStatus   []Bucket        `json:"roomsByStatus"`
	RoomsByType     []Bucket        `json:"roomsByType"`
	TotalCapacity   int             `json:"totalCapacity"`
	OccupiedBeds    int             `json:"occupiedBeds"`
	AvailableBeds   int             `json:"availableBeds"`
	OccupiedRooms   int             `json:"occupiedRooms"`
	Utilization     decimal.Decimal `json:"utilization"`
	OccupancyRate   decimal.Decimal `json:"occupancyRate"`
	NewAllocations  int             `json:"newAllocations"`
	PaymentsSummary StatusSummary   `json:"payments"`
	PaymentsByMonth []Bucket        `json:"paymentsByMonth"`

	Residents      []hostel.Allocation `json:"-"`
	PaymentRecords []hostel.Payment    `json:"-"`
	RoomNumbers    map[string]string   `json:"-"`
}

// BuildHostel derives the hostel report. Occupancy is current state;
// allocations and payments are filtered by the range.
func BuildHostel(data HostelData, r DateRange) *HostelReport {
	allocations := AllocationDataset.Filter(data.Allocations, r)
	payments := HostelPaymentDataset.Filter(data.Payments, r)

	rep := &HostelReport{
		Range:          r,
		TotalRooms:     len(data.Rooms),
		NewAllocations: len(allocations),
		Residents:      allocations,
		PaymentRecords: payments,
		RoomNumbers:    make(map[string]string, len(data.Rooms)),
	}

	rooms := Dataset[hostel.Room]{
		Name:   hostel.CollectionRooms,
		Amount: func(rm hostel.Room) decimal.Decimal { return decimal.NewFromInt(int64(rm.Capacity)) },
	}
	byStatus := rooms.GroupBy(data.Rooms, func(rm hostel.Room) string { return string(rm.Status) }, Unknown)
	byStatus.Ensure(string(hostel.RoomAvailable), string(hostel.RoomMaintenance))
	rep.RoomsByStatus = byStatus.Buckets()
	rep.RoomsByType = rooms.GroupBy(data.Rooms, func(rm hostel.Room) string { return rm.Type }, Uncategorized).ByKey()

	occupiedRooms := make(map[string]bool)
	for _, a := range data.Allocations {
		if a.Status == hostel.AllocationActive {
			rep.OccupiedBeds++
			occupiedRooms[a.RoomID] = true
		}
	}
	for _, rm := range data.Rooms {
		rep.TotalCapacity += rm.Capacity
		rep.RoomNumbers[rm.ID] = rm.RoomNumber
		if occupiedRooms[rm.ID] {
			rep.OccupiedRooms++
		}
	}
	rep.AvailableBeds = max(0, rep.TotalCapacity-rep.OccupiedBeds)
	rep.Utilization = RateInt(rep.OccupiedBeds, rep.TotalCapacity)
	rep.OccupancyRate = RateInt(rep.OccupiedRooms, rep.TotalRooms)

	rep.PaymentsSummary = paymentSummary(HostelPaymentDataset, payments,
		func(p hostel.Payment) string { return string(p.Status) },
		string(hostel.PaymentPaid), string(hostel.PaymentUnpaid))
	rep.PaymentsByMonth = HostelPaymentDataset.ByMonth(payments).ByKey()
	return rep
}

// paymentSummary partitions payments by status; collected is the paid sum.
func paymentSummary[T any](d Dataset[T], items []T, status func(T) string, paid string, others ...string) StatusSummary {
	byStatus := d.GroupBy(items, status, Unknown)
	byStatus.Ensure(append(others, paid)...)
	total := d.Total(items)
	collected := byStatus.Get(paid).Sum
	return StatusSummary{
		Total:          total,
		ByStatus:       byStatus.Buckets(),
		Collected:      collected,
		Outstanding:    total.Sum.Sub(collected),
		CollectionRate: Rate(collected, total.Sum),
	}
}

// Summary implements Summarizer.
func (r *HostelReport) Summary() []Metric {
	var m metrics
	m.int("Total Rooms", r.TotalRooms)
	m.buckets("Rooms", r.RoomsByStatus)
	m.int("Total Capacity", r.TotalCapacity)
	m.int("Occupied Beds", r.OccupiedBeds)
	m.int("Available Beds", r.AvailableBeds)
	m.dec("Utilization %", r.Utilization)
	m.dec("Occupancy Rate %", r.OccupancyRate)
	m.int("New Allocations", r.NewAllocations)
	m.dec("Payments Collected", r.PaymentsSummary.Collected)
	m.dec("Payments Outstanding", r.PaymentsSummary.Outstanding)
	m.dec("Payment Collection Rate %", r.PaymentsSummary.CollectionRate)
	return m
}
