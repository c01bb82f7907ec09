package printing

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// RenderResult is the output of a renderer.
type RenderResult struct {
	Data        []byte
	ContentType string
	Format      Format
	Pages       int
	Duration    time.Duration
}

// Renderer turns a Document into bytes.
type Renderer interface {
	Render(ctx context.Context, doc *Document) (*RenderResult, error)
	Format() Format
	ContentType() string
}

// StoreRequest is a rendered document to archive.
type StoreRequest struct {
	Kind        Kind
	ID          string
	Format      Format
	ContentType string
	Data        []byte
}

// Validate checks the request can be archived under a flat key.
func (r *StoreRequest) Validate() error {
	if r == nil {
		return shared.NewValidationError("store request is nil")
	}
	if !r.Kind.IsValid() {
		return shared.NewValidationError("unknown document kind %q", r.Kind)
	}
	if !r.Format.IsValid() {
		return shared.NewValidationError("unsupported document format %q", r.Format)
	}
	if r.ID == "" || r.ID == "." || strings.Contains(r.ID, "..") || strings.ContainsAny(r.ID, `/\`) {
		return shared.NewValidationError("document ID %q is invalid", r.ID)
	}
	if len(r.Data) == 0 {
		return shared.NewValidationError("document data is empty")
	}
	return nil
}

// StoredDocument locates an archived document.
type StoredDocument struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Storage archives rendered documents.
type Storage interface {
	Store(ctx context.Context, req *StoreRequest) (*StoredDocument, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// StorageKey returns the archive key {kind}/{yyyy}/{mm}/{id}.{ext}.
func StorageKey(kind Kind, id string, f Format, at time.Time) string {
	return path.Join(
		string(kind),
		fmt.Sprintf("%04d", at.Year()),
		fmt.Sprintf("%02d", int(at.Month())),
		id+"."+f.Extension(),
	)
}
