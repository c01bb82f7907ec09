package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error.
// Message is user-facing free text; Code only drives transport mapping.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so errors.Is matches
// sentinels even when the message has been specialised.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInvalidState        = "INVALID_STATE"
	CodeLoadFailed          = "LOAD_FAILED"
	CodeStoreFailure        = "STORE_FAILURE"
	CodeRendererUnavailable = "RENDERER_UNAVAILABLE"
	CodeBulkPartial         = "BULK_PARTIAL"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Record not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrLoadFailed          = NewDomainError(CodeLoadFailed, "Error loading data")
	ErrStoreFailure        = NewDomainError(CodeStoreFailure, "Data store request failed, please try again")
	ErrRendererUnavailable = NewDomainError(CodeRendererUnavailable, "Popup blocked: please allow popups (or enable the PDF renderer) to print this document")
	ErrBulkPartial         = NewDomainError(CodeBulkPartial, "Some documents could not be generated")
)

// NewValidationError returns an INVALID_INPUT error with a specific message.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// NewNotFoundError returns a NOT_FOUND error naming the missing record.
func NewNotFoundError(what, id string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %q not found", what, id))
}

// StoreError wraps a backend failure so it matches ErrStoreFailure while
// keeping the cause for logs.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStoreFailure, err))
}
