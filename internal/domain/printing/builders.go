package printing

import (
	"fmt"
	"time"

	"github.com/schoolerp/backend/internal/domain/accounts"
	"github.com/schoolerp/backend/internal/domain/cafeteria"
	"github.com/schoolerp/backend/internal/domain/hostel"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/transport"
	"github.com/shopspring/decimal"
)

// Related holds the records a document resolves names from. Any of them
// may be nil; the printed field is then omitted.
type Related struct {
	Student  *school.Student
	Class    *school.Class
	Room     *hostel.Room
	Route    *transport.Route
	MenuItem *cafeteria.MenuItem
}

func (r Related) studentFields(d *Document, studentID string) {
	if r.Student == nil {
		d.addField("Student ID", studentID)
		return
	}
	d.addField("Student", r.Student.Name)
	d.addField("Roll No", r.Student.RollNo)
	d.addField("Parent / Guardian", r.Student.ParentName)
}

func newDocument(kind Kind, id, number, status string, profile school.Profile, now time.Time) *Document {
	return &Document{
		Kind:     kind,
		RecordID: id,
		Title:    kind.Title(),
		Number:   number,
		School:   profile,
		Status:   status,
		IssuedAt: now.UTC(),
	}
}

// ChalanDocument prints a fee chalan. Zero fee lines are left out unless
// every line is zero.
func ChalanDocument(profile school.Profile, c accounts.FeeChalan, rel Related, now time.Time) *Document {
	d := newDocument(KindChalan, c.ID, c.ChalanNumber, string(c.Status), profile, now)
	if rel.Student == nil && c.StudentName != "" {
		rel.Student = &school.Student{Name: c.StudentName}
	}
	rel.studentFields(d, c.StudentID)
	if rel.Class != nil {
		d.addField("Class", rel.Class.DisplayName())
	}
	d.addField("Academic Year", c.AcademicYear)
	d.addField("Due Date", c.DueDate)
	if c.Payment != nil {
		d.addField("Paid On", c.Payment.PaidDate)
		d.addField("Payment Method", c.Payment.PaymentMethod)
		d.addField("Reference No", c.Payment.ReferenceNo)
		d.addField("Amount Received", decimal.NewFromFloat(c.Payment.AmountReceived).StringFixed(2))
	}

	var items []LineItem
	for _, l := range c.Fees.Lines() {
		if l.Amount != 0 {
			items = append(items, LineItem{Description: l.Label, Amount: decimal.NewFromFloat(l.Amount)})
		}
	}
	if len(items) == 0 {
		items = append(items, LineItem{Description: "Total Fees", Amount: decimal.Zero})
	}
	d.addItems(items...)
	if c.Payment != nil {
		d.Notes = c.Payment.Remarks
	}
	return d
}

// InvoiceDocument prints a single-amount invoice.
func InvoiceDocument(profile school.Profile, inv accounts.Invoice, rel Related, now time.Time) *Document {
	status := string(inv.Status)
	if status == "" {
		status = string(accounts.InvoiceUnpaid)
	}
	d := newDocument(KindInvoice, inv.ID, "", status, profile, now)
	rel.studentFields(d, inv.StudentID)
	d.addField("Due Date", inv.DueDate)
	if inv.PaidAt != nil {
		d.addField("Paid On", inv.PaidAt.UTC().Format(time.DateOnly))
	}
	desc := inv.Description
	if desc == "" {
		desc = "Invoice amount"
	}
	d.addItems(LineItem{Description: desc, Amount: decimal.NewFromFloat(inv.Amount)})
	return d
}

// HostelReceipt prints a hostel fee payment.
func HostelReceipt(profile school.Profile, p hostel.Payment, rel Related, now time.Time) *Document {
	d := newDocument(KindHostelReceipt, p.ID, "", string(p.Status), profile, now)
	rel.studentFields(d, p.StudentID)
	if rel.Room != nil {
		d.addField("Room", rel.Room.RoomNumber)
	}
	d.addField("Month", p.Month)
	if p.PaidAt != nil {
		d.addField("Paid On", p.PaidAt.UTC().Format(time.DateOnly))
	}
	d.addItems(LineItem{Description: monthly("Hostel fee", p.Month), Amount: decimal.NewFromFloat(p.Amount)})
	return d
}

// TransportReceipt prints a transport fee payment.
func TransportReceipt(profile school.Profile, p transport.Payment, rel Related, now time.Time) *Document {
	d := newDocument(KindTransportReceipt, p.ID, "", string(p.Status), profile, now)
	rel.studentFields(d, p.StudentID)
	if rel.Route != nil {
		d.addField("Route", rel.Route.Name)
	}
	d.addField("Month", p.Month)
	d.addField("Payment Date", p.PaymentDate)
	d.addItems(LineItem{Description: monthly("Transport fee", p.Month), Amount: decimal.NewFromFloat(p.Amount)})
	return d
}

// OrderReceipt prints a cafeteria order. A missing menu item prints the
// item ID with a zero amount.
func OrderReceipt(profile school.Profile, o cafeteria.Order, rel Related, now time.Time) *Document {
	d := newDocument(KindOrderReceipt, o.ID, "", string(o.Status), profile, now)
	if rel.Student != nil || o.StudentID != "" {
		rel.studentFields(d, o.StudentID)
	}
	d.addField("Order Date", o.EffectiveDate())

	name := o.ItemID
	if rel.MenuItem != nil {
		name = rel.MenuItem.Name
	}
	d.addItems(LineItem{
		Description: fmt.Sprintf("%s × %d", name, o.Quantity),
		Amount:      o.Total(rel.MenuItem),
	})
	return d
}

func monthly(label, month string) string {
	if month == "" {
		return label
	}
	return label + " (" + month + ")"
}
