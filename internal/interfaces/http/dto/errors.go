package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds http.max_body_size
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Data store error codes
const (
	// ErrCodeLoadFailed is used when a module's collections could not be fetched
	ErrCodeLoadFailed = "ERR_LOAD_FAILED"
	// ErrCodeStoreFailure is used when a single store request failed
	ErrCodeStoreFailure = "ERR_STORE_FAILURE"
)

// Document error codes
const (
	// ErrCodeRendererUnavailable is used when the requested format has no renderer
	ErrCodeRendererUnavailable = "ERR_RENDERER_UNAVAILABLE"
	ErrCodeRenderFailed        = "ERR_RENDER_FAILED"
	ErrCodeRenderTimeout       = "ERR_RENDER_TIMEOUT"
	ErrCodeInvalidDocument     = "ERR_INVALID_DOCUMENT"
	ErrCodeStorageFailed       = "ERR_STORAGE_FAILED"
	ErrCodeBulkPartial         = "ERR_BULK_PARTIAL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	// Store errors -> 503 so clients may retry
	ErrCodeLoadFailed:   http.StatusServiceUnavailable,
	ErrCodeStoreFailure: http.StatusServiceUnavailable,

	ErrCodeRendererUnavailable: http.StatusServiceUnavailable,
	ErrCodeRenderFailed:        http.StatusInternalServerError,
	ErrCodeRenderTimeout:       http.StatusGatewayTimeout,
	ErrCodeInvalidDocument:     http.StatusUnprocessableEntity,
	ErrCodeStorageFailed:       http.StatusBadGateway,
	ErrCodeBulkPartial:         http.StatusMultiStatus,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps domain and renderer codes to API codes
var domainErrorCodes = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"LOAD_FAILED":          ErrCodeLoadFailed,
	"STORE_FAILURE":        ErrCodeStoreFailure,
	"RENDERER_UNAVAILABLE": ErrCodeRendererUnavailable,
	"BULK_PARTIAL":         ErrCodeBulkPartial,
	"RENDER_FAILED":        ErrCodeRenderFailed,
	"RENDER_TIMEOUT":       ErrCodeRenderTimeout,
	"INVALID_DOCUMENT":     ErrCodeInvalidDocument,
	"STORAGE_FAILED":       ErrCodeStorageFailed,
	"STORAGE_NOT_FOUND":    ErrCodeNotFound,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if c, ok := domainErrorCodes[code]; ok {
		return c
	}
	return code
}
