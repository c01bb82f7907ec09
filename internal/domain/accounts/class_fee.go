package accounts

import "github.com/schoolerp/backend/internal/domain/shared"

// FeeAmounts holds optional amounts for the six fee categories.
// A nil field is unset; a zero field is a configured zero.
type FeeAmounts struct {
	MonthlyTuition      *float64 `json:"monthlyTuition,omitempty" validate:"omitempty,gte=0"`
	ExaminationFee      *float64 `json:"examinationFee,omitempty" validate:"omitempty,gte=0"`
	LibraryFee          *float64 `json:"libraryFee,omitempty" validate:"omitempty,gte=0"`
	SportsFee           *float64 `json:"sportsFee,omitempty" validate:"omitempty,gte=0"`
	TransportFee        *float64 `json:"transportFee,omitempty" validate:"omitempty,gte=0"`
	OtherFees           *float64 `json:"otherFees,omitempty" validate:"omitempty,gte=0"`
	OtherFeeDescription string   `json:"otherFeeDescription,omitempty"`
}

// ClassFeeAmount is the per-class fee template used when generating chalans.
type ClassFeeAmount struct {
	shared.BaseRecord
	ClassID string `json:"classId" validate:"required"`
	FeeAmounts
}

// coalesce returns the first non-nil value, else 0.
func coalesce(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

// ResolveFees builds the fee block of a new chalan. Each field takes the
// manual override when set, else the class default when set, else 0.
// totalAmount is stamped here and never recomputed afterwards.
func ResolveFees(defaults *ClassFeeAmount, overrides FeeAmounts) ChalanFees {
	var d FeeAmounts
	if defaults != nil {
		d = defaults.FeeAmounts
	}

	fees := ChalanFees{
		MonthlyTuition: coalesce(overrides.MonthlyTuition, d.MonthlyTuition),
		ExaminationFee: coalesce(overrides.ExaminationFee, d.ExaminationFee),
		LibraryFee:     coalesce(overrides.LibraryFee, d.LibraryFee),
		SportsFee:      coalesce(overrides.SportsFee, d.SportsFee),
		TransportFee:   coalesce(overrides.TransportFee, d.TransportFee),
		OtherFees:      coalesce(overrides.OtherFees, d.OtherFees),
	}
	fees.OtherFeeDescription = shared.FirstNonEmpty(overrides.OtherFeeDescription, d.OtherFeeDescription)
	fees.TotalAmount = fees.Total().InexactFloat64()
	return fees
}
