package shared

import (
	"context"
	"fmt"
	"regexp"
)

// Document is a schemaless record: its fields keyed by name, with the
// opaque store ID under "id".
type Document map[string]any

// Reserved document keys managed by the store.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// ID returns the document ID or "".
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Clone returns a shallow copy.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge overlays partial onto a copy of d at the top level.
func (d Document) Merge(partial Document) Document {
	out := d.Clone()
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// WithoutReserved returns a copy without the store-managed keys.
func (d Document) WithoutReserved() Document {
	out := d.Clone()
	delete(out, FieldID)
	delete(out, FieldCreatedAt)
	delete(out, FieldUpdatedAt)
	return out
}

// Filter is a single server-side equality predicate.
type Filter struct {
	Field string
	Value any
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validate rejects field names that cannot be safely used as a path.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if !fieldNamePattern.MatchString(f.Field) {
		return NewValidationError("invalid filter field %q", f.Field)
	}
	return nil
}

// Eq builds an equality filter.
func Eq(field string, value any) *Filter {
	return &Filter{Field: field, Value: value}
}

// ValidateCollectionName rejects empty or path-like collection names.
func ValidateCollectionName(name string) error {
	if !fieldNamePattern.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}

// DocumentStore is the record store accessor every module depends on.
// Writes are last-write-wins; no version check is performed.
type DocumentStore interface {
	// FetchAll returns every document of a collection, optionally restricted
	// by one equality predicate.
	FetchAll(ctx context.Context, collection string, filter *Filter) ([]Document, error)
	// Insert appends a document and returns its new ID.
	Insert(ctx context.Context, collection string, fields Document) (string, error)
	// Update merges partial fields into an existing document.
	Update(ctx context.Context, collection, id string, partial Document) error
	// Delete hard-deletes a document.
	Delete(ctx context.Context, collection, id string) error
	// FetchOne returns a single document or ErrNotFound.
	FetchOne(ctx context.Context, collection, id string) (Document, error)
}
