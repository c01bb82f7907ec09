package printing

import (
	"github.com/schoolerp/backend/internal/domain/printing"
)

// RenderedDocument is a rendered document ready to send inline.
type RenderedDocument struct {
	Data        []byte
	ContentType string
	Filename    string
	Format      printing.Format
	Pages       int
}

// ArchiveResponse locates an archived document
type ArchiveResponse struct {
	Kind     printing.Kind   `json:"kind"`
	RecordID string          `json:"recordId"`
	Format   printing.Format `json:"format"`
	Filename string          `json:"filename"`
	Key      string          `json:"key"`
	URL      string          `json:"url"`
	Size     int64           `json:"size"`
}

// Target is one record of a bulk run.
type Target struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
