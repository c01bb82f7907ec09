package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// MemoryStore is an in-memory shared.DocumentStore for service and handler
// tests. Documents keep insertion order, like the created_at index of the
// relational backend.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string]map[string]shared.Document
	order    map[string][]string
	failures map[string]error
	calls    map[string]int
	Now      func() time.Time
}

// NewMemoryStore creates an empty store with a fixed clock.
func NewMemoryStore() *MemoryStore {
	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return &MemoryStore{
		docs:     make(map[string]map[string]shared.Document),
		order:    make(map[string][]string),
		failures: make(map[string]error),
		calls:    make(map[string]int),
		Now:      func() time.Time { return clock },
	}
}

// Seed inserts documents with their own "id" values, generating one when
// missing. It returns the IDs in order.
func (s *MemoryStore) Seed(collection string, docs ...shared.Document) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id := d.ID()
		if id == "" {
			id = uuid.NewString()
		}
		doc := d.Clone()
		doc[shared.FieldID] = id
		if _, ok := doc[shared.FieldCreatedAt]; !ok {
			doc[shared.FieldCreatedAt] = s.Now()
		}
		s.put(collection, id, doc)
		ids = append(ids, id)
	}
	return ids
}

// FailOn makes every call touching collection return err. A nil err clears it.
func (s *MemoryStore) FailOn(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, collection)
		return
	}
	s.failures[collection] = err
}

// Calls returns how many operations hit collection.
func (s *MemoryStore) Calls(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[collection]
}

// Count returns the number of documents in collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order[collection])
}

// Get returns a copy of a stored document.
func (s *MemoryStore) Get(collection, id string) (shared.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[collection][id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

func (s *MemoryStore) put(collection, id string, doc shared.Document) {
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]shared.Document)
	}
	if _, exists := s.docs[collection][id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	s.docs[collection][id] = doc
}

func (s *MemoryStore) enter(collection string) error {
	s.calls[collection]++
	if err := s.failures[collection]; err != nil {
		return shared.StoreError("memory store", err)
	}
	return nil
}

// FetchAll implements shared.DocumentStore.
func (s *MemoryStore) FetchAll(_ context.Context, collection string, filter *shared.Filter) ([]shared.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(collection); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	out := make([]shared.Document, 0, len(s.order[collection]))
	for _, id := range s.order[collection] {
		d := s.docs[collection][id]
		if filter != nil && fmt.Sprint(d[filter.Field]) != fmt.Sprint(filter.Value) {
			continue
		}
		out = append(out, d.Clone())
	}
	return out, nil
}

// FetchOne implements shared.DocumentStore.
func (s *MemoryStore) FetchOne(_ context.Context, collection, id string) (shared.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(collection); err != nil {
		return nil, err
	}
	d, ok := s.docs[collection][id]
	if !ok {
		return nil, shared.NewNotFoundError(collection, id)
	}
	return d.Clone(), nil
}

// Insert implements shared.DocumentStore.
func (s *MemoryStore) Insert(_ context.Context, collection string, fields shared.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(collection); err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := s.Now()
	doc := fields.WithoutReserved()
	doc[shared.FieldID] = id
	doc[shared.FieldCreatedAt] = now
	doc[shared.FieldUpdatedAt] = now
	s.put(collection, id, doc)
	return id, nil
}

// Update implements shared.DocumentStore.
func (s *MemoryStore) Update(_ context.Context, collection, id string, partial shared.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(collection); err != nil {
		return err
	}
	d, ok := s.docs[collection][id]
	if !ok {
		return shared.NewNotFoundError(collection, id)
	}
	merged := d.Merge(partial.WithoutReserved())
	merged[shared.FieldUpdatedAt] = s.Now()
	s.docs[collection][id] = merged
	return nil
}

// Delete implements shared.DocumentStore.
func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(collection); err != nil {
		return err
	}
	if _, ok := s.docs[collection][id]; !ok {
		return shared.NewNotFoundError(collection, id)
	}
	delete(s.docs[collection], id)
	ids := s.order[collection]
	for i, v := range ids {
		if v == id {
			s.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

var _ shared.DocumentStore = (*MemoryStore)(nil)
