package accounts

import (
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ChalanStatus is exactly pending, paid or overdue.
type ChalanStatus string

const (
	ChalanPending ChalanStatus = "pending"
	ChalanPaid    ChalanStatus = "paid"
	ChalanOverdue ChalanStatus = "overdue"
)

// IsValid reports whether s is one of the closed set of values.
func (s ChalanStatus) IsValid() bool {
	switch s {
	case ChalanPending, ChalanPaid, ChalanOverdue:
		return true
	}
	return false
}

// ChalanFees is the itemised fee block of a chalan.
// TotalAmount is a snapshot taken at generation and is never recomputed.
type ChalanFees struct {
	MonthlyTuition      float64 `json:"monthlyTuition"`
	ExaminationFee      float64 `json:"examinationFee"`
	LibraryFee          float64 `json:"libraryFee"`
	SportsFee           float64 `json:"sportsFee"`
	TransportFee        float64 `json:"transportFee"`
	OtherFees           float64 `json:"otherFees"`
	OtherFeeDescription string  `json:"otherFeeDescription,omitempty"`
	TotalAmount         float64 `json:"totalAmount"`
}

// FeeLine is one labelled fee component.
type FeeLine struct {
	Label  string
	Amount float64
}

// Lines returns the six fee components in print order.
func (f ChalanFees) Lines() []FeeLine {
	other := "Other Fees"
	if f.OtherFeeDescription != "" {
		other = "Other Fees (" + f.OtherFeeDescription + ")"
	}
	return []FeeLine{
		{"Monthly Tuition", f.MonthlyTuition},
		{"Examination Fee", f.ExaminationFee},
		{"Library Fee", f.LibraryFee},
		{"Sports Fee", f.SportsFee},
		{"Transport Fee", f.TransportFee},
		{other, f.OtherFees},
	}
}

// Total sums the six numeric fee fields.
func (f ChalanFees) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range f.Lines() {
		sum = sum.Add(decimal.NewFromFloat(l.Amount))
	}
	return sum
}

// ChalanPayment is attached once a chalan is paid.
type ChalanPayment struct {
	AmountReceived float64 `json:"amountReceived" validate:"gte=0"`
	PaymentMethod  string  `json:"paymentMethod" validate:"required"`
	ReferenceNo    string  `json:"referenceNo,omitempty"`
	PaidDate       string  `json:"paidDate" validate:"required,datetime=2006-01-02"`
	Remarks        string  `json:"remarks,omitempty"`
}

// FeeChalan is a student's itemised fee voucher.
type FeeChalan struct {
	shared.BaseRecord
	StudentID    string         `json:"studentId" validate:"required"`
	StudentName  string         `json:"studentName,omitempty"`
	ClassID      string         `json:"classId,omitempty"`
	ChalanNumber string         `json:"chalanNumber"`
	AcademicYear string         `json:"academicYear,omitempty"`
	DueDate      string         `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Fees         ChalanFees     `json:"fees"`
	Status       ChalanStatus   `json:"status" validate:"omitempty,oneof=pending paid overdue"`
	Payment      *ChalanPayment `json:"payment,omitempty"`
}

// EffectiveDate returns the due date, else the creation date.
func (c FeeChalan) EffectiveDate() string {
	return shared.FirstNonEmpty(c.DueDate, c.CreatedDate())
}

// IsOverdue reports whether a pending chalan's due date is before today.
func (c FeeChalan) IsOverdue(today string) bool {
	return c.Status == ChalanPending && c.DueDate != "" && c.DueDate < today
}

// PaymentPatch is the field-level update attaching a payment.
// The previous status is not checked: writes are last-write-wins.
func PaymentPatch(p ChalanPayment) shared.Document {
	return shared.Document{
		"status": string(ChalanPaid),
		"payment": map[string]any{
			"amountReceived": p.AmountReceived,
			"paymentMethod":  p.PaymentMethod,
			"referenceNo":    p.ReferenceNo,
			"paidDate":       p.PaidDate,
			"remarks":        p.Remarks,
		},
	}
}

// OverduePatch flips a chalan to overdue.
func OverduePatch() shared.Document {
	return shared.Document{"status": string(ChalanOverdue)}
}
