package accounts

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// GenerateChalanInput describes one chalan to generate.
type GenerateChalanInput struct {
	Student      school.Student
	ClassFees    *ClassFeeAmount // nil when the class has no template
	Overrides    FeeAmounts
	DueDate      string
	AcademicYear string
	Now          time.Time
}

// GenerateChalan builds a pending chalan. It runs all validation before any
// store call so a rejected input never leaves a partial write.
func GenerateChalan(in GenerateChalanInput) (*FeeChalan, error) {
	if in.Student.ID == "" {
		return nil, shared.NewValidationError("Please select a student")
	}
	if in.DueDate == "" {
		return nil, shared.NewValidationError("Please select a due date")
	}
	if !shared.IsISODate(in.DueDate) {
		return nil, shared.NewValidationError("Due date must be YYYY-MM-DD, got %q", in.DueDate)
	}

	classID := in.Student.ClassID
	if in.ClassFees != nil && classID == "" {
		classID = in.ClassFees.ClassID
	}

	return &FeeChalan{
		StudentID:    in.Student.ID,
		StudentName:  in.Student.Name,
		ClassID:      classID,
		ChalanNumber: NewChalanNumber(in.Student.ID, in.Now),
		AcademicYear: in.AcademicYear,
		DueDate:      in.DueDate,
		Fees:         ResolveFees(in.ClassFees, in.Overrides),
		Status:       ChalanPending,
	}, nil
}

// NewChalanNumber returns CH-<YYYYMM>-<student suffix>-<4 random digits>.
// Uniqueness is best effort only.
func NewChalanNumber(studentID string, now time.Time) string {
	suffix := strings.ToUpper(studentID)
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	id := uuid.New()
	n := binary.BigEndian.Uint16(id[:2]) % 10000
	return fmt.Sprintf("CH-%s-%s-%04d", now.Format("200601"), suffix, n)
}
