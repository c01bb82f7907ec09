// Package records provides create/read/update/delete over the registered
// collections, keeping the module caches in step with every write.
package records

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/schoolerp/backend/internal/application/collection"
	"github.com/schoolerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Service handles record operations
type Service struct {
	store    shared.DocumentStore
	caches   *collection.Registry
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a new record service
func NewService(store shared.DocumentStore, caches *collection.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		caches:   caches,
		validate: NewValidator(),
		logger:   logger,
	}
}

func lookup(name string) (checker, error) {
	check, ok := Collections[name]
	if !ok {
		return nil, shared.NewNotFoundError("collection", name)
	}
	return check, nil
}

// Check validates fields against the entity of collection. Validation
// failures match shared.ErrInvalidInput and unwrap to
// validator.ValidationErrors.
func (s *Service) Check(name string, fields shared.Document) error {
	check, err := lookup(name)
	if err != nil {
		return err
	}
	if err := check(s.validate, fields); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.Join(shared.ErrInvalidInput, verrs)
		}
		return err
	}
	return nil
}

// List returns the documents of a collection, optionally filtered by one
// field equality.
func (s *Service) List(ctx context.Context, name string, filter *shared.Filter) ([]shared.Document, error) {
	if _, err := lookup(name); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.store.FetchAll(ctx, name, filter)
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, name, id string) (shared.Document, error) {
	if _, err := lookup(name); err != nil {
		return nil, err
	}
	return s.store.FetchOne(ctx, name, id)
}

// Create validates and inserts a document, then reloads the modules
// reading the collection. A failed reload is logged; the insert stands.
func (s *Service) Create(ctx context.Context, name string, fields shared.Document) (shared.Document, error) {
	fields = fields.WithoutReserved()
	if err := s.Check(name, fields); err != nil {
		return nil, err
	}
	id, err := s.store.Insert(ctx, name, fields)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Record created", zap.String("collection", name), zap.String("id", id))
	s.reload(ctx, name)

	created := fields.Clone()
	created[shared.FieldID] = id
	return created, nil
}

// Update merges partial into an existing document. The merged result must
// still be a valid entity.
func (s *Service) Update(ctx context.Context, name, id string, partial shared.Document) (shared.Document, error) {
	if _, err := lookup(name); err != nil {
		return nil, err
	}
	current, err := s.store.FetchOne(ctx, name, id)
	if err != nil {
		return nil, err
	}
	partial = partial.WithoutReserved()
	merged := current.Merge(partial)
	if err := s.Check(name, merged); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, name, id, partial); err != nil {
		return nil, err
	}
	s.logger.Info("Record updated", zap.String("collection", name), zap.String("id", id))
	s.reload(ctx, name)
	return merged, nil
}

// Delete hard-deletes a document and drops it from the module caches.
func (s *Service) Delete(ctx context.Context, name, id string) error {
	if _, err := lookup(name); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, name, id); err != nil {
		return err
	}
	s.caches.Remove(name, id)
	s.logger.Info("Record deleted", zap.String("collection", name), zap.String("id", id))
	return nil
}

func (s *Service) reload(ctx context.Context, name string) {
	if err := s.caches.Reload(ctx, name); err != nil {
		s.logger.Warn("Module reload after write failed", zap.String("collection", name), zap.Error(err))
	}
}
