package accounts

import (
	"github.com/schoolerp/backend/internal/domain/accounts"
)

// GenerateChalanRequest is the input of a single chalan generation
type GenerateChalanRequest struct {
	StudentID    string              `json:"studentId" binding:"required"`
	DueDate      string              `json:"dueDate" binding:"required"`
	AcademicYear string              `json:"academicYear"`
	Overrides    accounts.FeeAmounts `json:"overrides"`
}

// BulkChalanRequest generates one chalan per student of a class
type BulkChalanRequest struct {
	ClassID      string              `json:"classId" binding:"required"`
	DueDate      string              `json:"dueDate" binding:"required"`
	AcademicYear string              `json:"academicYear"`
	Overrides    accounts.FeeAmounts `json:"overrides"`
	// Format of the archived documents, html or pdf; empty skips archiving
	Format string `json:"format" binding:"omitempty,oneof=html pdf"`
}

// PayChalanRequest attaches a payment to a chalan
type PayChalanRequest = accounts.ChalanPayment

// MarkOverdueResponse reports the chalans flipped to overdue
type MarkOverdueResponse struct {
	Updated []string `json:"updated"`
	Count   int      `json:"count"`
}

// ImportRowError is one rejected CSV row
type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes a transactions CSV import
type ImportResult struct {
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors"`
}
