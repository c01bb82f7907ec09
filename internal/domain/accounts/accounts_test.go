package accounts

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func standardClassFees() *ClassFeeAmount {
	return &ClassFeeAmount{
		ClassID: "class-7",
		FeeAmounts: FeeAmounts{
			MonthlyTuition: ptr(5000),
			ExaminationFee: ptr(2000),
			LibraryFee:     ptr(500),
			SportsFee:      ptr(1000),
			TransportFee:   ptr(3000),
			OtherFees:      ptr(0),
		},
	}
}

func TestGenerateChalan_StandardClassFees(t *testing.T) {
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	chalan, err := GenerateChalan(GenerateChalanInput{
		Student:      school.Student{BaseRecord: shared.BaseRecord{ID: "stu-00ab12"}, Name: "Ayesha", ClassID: "class-7"},
		ClassFees:    standardClassFees(),
		DueDate:      "2024-04-10",
		AcademicYear: "2024-2025",
		Now:          now,
	})
	require.NoError(t, err)

	assert.Equal(t, 11500.0, chalan.Fees.TotalAmount)
	assert.Equal(t, ChalanPending, chalan.Status)
	assert.Equal(t, "class-7", chalan.ClassID)
	assert.Equal(t, "Ayesha", chalan.StudentName)
	assert.Nil(t, chalan.Payment)
	assert.Regexp(t, regexp.MustCompile(`^CH-202404-AB12-\d{4}$`), chalan.ChalanNumber)
}

func TestResolveFees_NullCoalescing(t *testing.T) {
	t.Run("zero class default is kept", func(t *testing.T) {
		defaults := &ClassFeeAmount{FeeAmounts: FeeAmounts{MonthlyTuition: ptr(0), LibraryFee: ptr(300)}}
		fees := ResolveFees(defaults, FeeAmounts{})
		assert.Equal(t, 0.0, fees.MonthlyTuition)
		assert.Equal(t, 300.0, fees.LibraryFee)
		assert.Equal(t, 300.0, fees.TotalAmount)
	})

	t.Run("zero override beats non-zero default", func(t *testing.T) {
		fees := ResolveFees(standardClassFees(), FeeAmounts{TransportFee: ptr(0)})
		assert.Equal(t, 0.0, fees.TransportFee)
		assert.Equal(t, 8500.0, fees.TotalAmount)
	})

	t.Run("unset everywhere defaults to zero", func(t *testing.T) {
		fees := ResolveFees(nil, FeeAmounts{ExaminationFee: ptr(750)})
		assert.Equal(t, 750.0, fees.TotalAmount)
		assert.Equal(t, 0.0, fees.SportsFee)
	})
}

func TestChalanFees_TotalMatchesComponents(t *testing.T) {
	fees := ChalanFees{MonthlyTuition: 0.1, ExaminationFee: 0.2, OtherFees: 1200.55}
	assert.Equal(t, "1200.85", fees.Total().String())
}

func TestGenerateChalan_Validation(t *testing.T) {
	_, err := GenerateChalan(GenerateChalanInput{DueDate: "2024-01-01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Equal(t, "Please select a student", err.Error())

	_, err = GenerateChalan(GenerateChalanInput{
		Student: school.Student{BaseRecord: shared.BaseRecord{ID: "s1"}},
		DueDate: "10/04/2024",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestFeeChalan_IsOverdue(t *testing.T) {
	c := FeeChalan{Status: ChalanPending, DueDate: "2024-04-10"}
	assert.False(t, c.IsOverdue("2024-04-10"))
	assert.True(t, c.IsOverdue("2024-04-11"))

	c.Status = ChalanPaid
	assert.False(t, c.IsOverdue("2024-05-01"))
}

func TestStatusValueSets(t *testing.T) {
	assert.True(t, InvoicePaid.IsValid())
	assert.False(t, InvoiceStatus("partial").IsValid())
	assert.True(t, ChalanOverdue.IsValid())
	assert.False(t, ChalanStatus("cancelled").IsValid())
	assert.True(t, TransactionExpense.IsValid())
	assert.False(t, TransactionType("refund").IsValid())
}

func TestPaymentPatch(t *testing.T) {
	patch := PaymentPatch(ChalanPayment{AmountReceived: 11500, PaymentMethod: "cash", PaidDate: "2024-04-05"})
	assert.Equal(t, "paid", patch["status"])
	payment, ok := patch["payment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 11500.0, payment["amountReceived"])
}
