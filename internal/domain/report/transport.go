package report

import (
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/transport"
	"github.com/shopspring/decimal"
)

// Transport datasets
var (
	TripDataset = Dataset[transport.Trip]{
		Name: transport.CollectionTrips,
		Date: transport.Trip.EffectiveDate,
	}
	TransportPaymentDataset = Dataset[transport.Payment]{
		Name:   transport.CollectionPayments,
		Date:   transport.Payment.EffectiveDate,
		Amount: func(p transport.Payment) decimal.Decimal { return Amount(p.Amount) },
	}
)

// TransportData is the cached input of the transport report.
type TransportData struct {
	Vehicles    []transport.Vehicle
	Drivers     []transport.Driver
	Routes      []transport.Route
	Assignments []transport.Assignment
	Trips       []transport.Trip
	Payments    []transport.Payment
	Students    []school.Student
}

// TransportReport is the derived transport view for a date range.
type TransportReport struct {
	Range               DateRange       `json:"range"`
	Vehicles            int             `json:"vehicles"`
	Drivers             int             `json:"drivers"`
	Routes              int             `json:"routes"`
	ActiveAssignments   int             `json:"activeAssignments"`
	InactiveAssignments int             `json:"inactiveAssignments"`
	TotalTrips          int             `json:"totalTrips"`
	TripsByStatus       []Bucket        `json:"tripsByStatus"`
	TripsByType         []Bucket        `json:"tripsByType"`
	OnTimeRate          decimal.Decimal `json:"onTimeRate"`
	BusiestRoutes       []Ranked        `json:"busiestRoutes"`
	PaymentsSummary     StatusSummary   `json:"payments"`

	TripRecords    []transport.Trip    `json:"-"`
	PaymentRecords []transport.Payment `json:"-"`
	RouteNames     map[string]string   `json:"-"`
	VehicleNumbers map[string]string   `json:"-"`
	DriverNames    map[string]string   `json:"-"`
}

// BuildTransport derives the transport report.
func BuildTransport(data TransportData, r DateRange) *TransportReport {
	trips := TripDataset.Filter(data.Trips, r)
	payments := TransportPaymentDataset.Filter(data.Payments, r)

	rep := &TransportReport{
		Range:          r,
		Vehicles:       len(data.Vehicles),
		Drivers:        len(data.Drivers),
		Routes:         len(data.Routes),
		TotalTrips:     len(trips),
		TripRecords:    trips,
		PaymentRecords: payments,
		RouteNames:     make(map[string]string, len(data.Routes)),
		VehicleNumbers: make(map[string]string, len(data.Vehicles)),
		DriverNames:    make(map[string]string, len(data.Drivers)),
	}
	for _, rt := range data.Routes {
		rep.RouteNames[rt.ID] = rt.Name
	}
	for _, v := range data.Vehicles {
		rep.VehicleNumbers[v.ID] = v.RegistrationNo
	}
	for _, d := range data.Drivers {
		rep.DriverNames[d.ID] = d.Name
	}

	rep.ActiveAssignments = Count(data.Assignments, func(a transport.Assignment) bool {
		return a.Status == transport.AssignmentActive
	})
	rep.InactiveAssignments = len(data.Assignments) - rep.ActiveAssignments

	byStatus := TripDataset.GroupBy(trips, func(t transport.Trip) string { return string(t.Status) }, Unknown)
	byStatus.Ensure(string(transport.TripCompleted), string(transport.TripDelayed), string(transport.TripCancelled))
	rep.TripsByStatus = byStatus.Buckets()
	rep.OnTimeRate = RateInt(byStatus.Get(string(transport.TripCompleted)).Count, len(trips))

	byType := TripDataset.GroupBy(trips, func(t transport.Trip) string { return string(t.TripType) }, Unknown)
	byType.Ensure(string(transport.TripMorning), string(transport.TripAfternoon), string(transport.TripEvening))
	rep.TripsByType = byType.Buckets()

	byRoute := TripDataset.GroupBy(trips, func(t transport.Trip) string { return t.RouteID }, Unknown)
	rep.BusiestRoutes = Rank(byRoute.ByCountDesc(), 10, lookup(rep.RouteNames))

	rep.PaymentsSummary = paymentSummary(TransportPaymentDataset, payments,
		func(p transport.Payment) string { return string(p.Status) },
		string(transport.PaymentPaid), string(transport.PaymentUnpaid))
	return rep
}

// Summary implements Summarizer.
func (r *TransportReport) Summary() []Metric {
	var m metrics
	m.int("Vehicles", r.Vehicles)
	m.int("Drivers", r.Drivers)
	m.int("Routes", r.Routes)
	m.int("Active Assignments", r.ActiveAssignments)
	m.int("Inactive Assignments", r.InactiveAssignments)
	m.int("Total Trips", r.TotalTrips)
	for _, b := range r.TripsByStatus {
		m.int("Trips "+b.Key, b.Count)
	}
	for _, b := range r.TripsByType {
		m.int("Trips "+b.Key, b.Count)
	}
	m.dec("On-Time Rate %", r.OnTimeRate)
	m.dec("Payments Collected", r.PaymentsSummary.Collected)
	m.dec("Payments Outstanding", r.PaymentsSummary.Outstanding)
	return m
}
