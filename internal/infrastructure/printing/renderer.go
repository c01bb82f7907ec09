package printing

import (
	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/domain/shared"
)

// RenderError represents an error during rendering or archiving
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidInput   = "INVALID_DOCUMENT"
	ErrCodeStorageFailed  = "STORAGE_FAILED"
	ErrCodeStorageMissing = "STORAGE_NOT_FOUND"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Registry holds the configured renderers. HTML is always present; PDF is
// nil when no PDF renderer is enabled.
type Registry struct {
	html printing.Renderer
	pdf  printing.Renderer
}

// NewRegistry creates a renderer registry.
func NewRegistry(html, pdf printing.Renderer) *Registry {
	return &Registry{html: html, pdf: pdf}
}

// For returns the renderer of a format. An unconfigured renderer yields
// shared.ErrRendererUnavailable and nothing is generated.
func (r *Registry) For(f printing.Format) (printing.Renderer, error) {
	var out printing.Renderer
	switch f {
	case printing.FormatHTML:
		out = r.html
	case printing.FormatPDF:
		out = r.pdf
	default:
		return nil, shared.NewValidationError("unsupported document format %q", f)
	}
	if out == nil {
		return nil, shared.ErrRendererUnavailable
	}
	return out, nil
}

// Formats lists the formats that can be rendered.
func (r *Registry) Formats() []printing.Format {
	var out []printing.Format
	if r.html != nil {
		out = append(out, printing.FormatHTML)
	}
	if r.pdf != nil {
		out = append(out, printing.FormatPDF)
	}
	return out
}
