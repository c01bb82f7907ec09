package shared

import (
	"encoding/json"
	"fmt"
)

// Encode converts an entity struct into a Document using its json tags.
// Store-managed keys are dropped; the store stamps them.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc.WithoutReserved(), nil
}

// DecodeOne converts a Document into T.
func DecodeOne[T any](doc Document) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("decode document %s: %w", doc.ID(), err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document %s: %w", doc.ID(), err)
	}
	return out, nil
}

// Decode converts a list of Documents into []T, preserving order.
func Decode[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := DecodeOne[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
