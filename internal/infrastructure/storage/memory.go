package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/domain/shared"
)

var _ printing.Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps archived documents in process memory.
// Use it for development and tests; contents are lost on restart.
type MemoryStorage struct {
	// BaseURL prefixes returned URLs
	// Defaults to "memory://documents" if not set
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
	now     func() time.Time
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage(now func() time.Time) *MemoryStorage {
	if now == nil {
		now = time.Now
	}
	return &MemoryStorage{
		BaseURL: "memory://documents",
		objects: make(map[string][]byte),
		now:     now,
	}
}

// Store keeps a copy of the document data.
func (s *MemoryStorage) Store(_ context.Context, req *printing.StoreRequest) (*printing.StoredDocument, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := printing.StorageKey(req.Kind, req.ID, req.Format, s.now().UTC())

	s.mu.Lock()
	s.objects[key] = bytes.Clone(req.Data)
	s.mu.Unlock()

	return &printing.StoredDocument{Key: key, URL: s.url(key), Size: int64(len(req.Data))}, nil
}

// Get returns a reader over the stored bytes.
func (s *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.NewNotFoundError("document", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete drops the document; a missing key is not an error.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// URL returns the URL of a stored key.
func (s *MemoryStorage) URL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", shared.NewNotFoundError("document", key)
	}
	return s.url(key), nil
}

// Keys lists the stored keys.
func (s *MemoryStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

func (s *MemoryStorage) url(key string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + key
}
