package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ensure GormDocumentStore implements shared.DocumentStore
var _ shared.DocumentStore = (*GormDocumentStore)(nil)

// GormDocumentStore keeps every collection in the documents table, one
// JSONB payload per record.
type GormDocumentStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormDocumentStore creates a document store over db.
func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db, now: time.Now}
}

// FetchAll returns a collection ordered by creation time.
func (s *GormDocumentStore) FetchAll(ctx context.Context, collection string, filter *shared.Filter) ([]shared.Document, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("collection = ?", collection)
	if filter != nil {
		cond, err := s.equals(filter)
		if err != nil {
			return nil, err
		}
		q = q.Where(cond)
	}

	var models []DocumentModel
	if err := q.Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, shared.StoreError("fetch "+collection, err)
	}

	docs := make([]shared.Document, 0, len(models))
	for i := range models {
		doc, err := toDocument(&models[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// equals builds the dialect-specific JSON equality predicate.
func (s *GormDocumentStore) equals(f *shared.Filter) (any, error) {
	if s.db.Dialector.Name() == "postgres" {
		contains, err := json.Marshal(map[string]any{f.Field: f.Value})
		if err != nil {
			return nil, shared.NewValidationError("unsupported filter value for %q", f.Field)
		}
		return gorm.Expr("data @> ?::jsonb", string(contains)), nil
	}
	return datatypes.JSONQuery("data").Equals(f.Value, f.Field), nil
}

// FetchOne returns a single document.
func (s *GormDocumentStore) FetchOne(ctx context.Context, collection, id string) (shared.Document, error) {
	m, err := s.find(s.db.WithContext(ctx), collection, id)
	if err != nil {
		return nil, err
	}
	return toDocument(m)
}

// Insert stores fields as a new document and stamps both timestamps.
func (s *GormDocumentStore) Insert(ctx context.Context, collection string, fields shared.Document) (string, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return "", err
	}
	data, err := json.Marshal(fields.WithoutReserved())
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", collection, err)
	}
	now := s.now().UTC()
	m := DocumentModel{
		ID:         uuid.NewString(),
		Collection: collection,
		Data:       datatypes.JSON(data),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return "", shared.StoreError("insert "+collection, err)
	}
	return m.ID, nil
}

// Update merges partial into the stored payload inside a transaction.
func (s *GormDocumentStore) Update(ctx context.Context, collection, id string, partial shared.Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.find(tx, collection, id)
		if err != nil {
			return err
		}
		var current shared.Document
		if err := json.Unmarshal(m.Data, &current); err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		data, err := json.Marshal(current.Merge(partial.WithoutReserved()))
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, id, err)
		}
		res := tx.Model(&DocumentModel{}).
			Where("id = ? AND collection = ?", id, collection).
			Updates(map[string]any{"data": datatypes.JSON(data), "updated_at": s.now().UTC()})
		if res.Error != nil {
			return shared.StoreError("update "+collection, res.Error)
		}
		return nil
	})
}

// Delete hard-deletes a document.
func (s *GormDocumentStore) Delete(ctx context.Context, collection, id string) error {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ? AND collection = ?", id, collection).Delete(&DocumentModel{})
	if res.Error != nil {
		return shared.StoreError("delete "+collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.NewNotFoundError(collection, id)
	}
	return nil
}

func (s *GormDocumentStore) find(db *gorm.DB, collection, id string) (*DocumentModel, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, shared.NewNotFoundError(collection, id)
	}
	var m DocumentModel
	err := db.Where("id = ? AND collection = ?", id, collection).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError(collection, id)
	}
	if err != nil {
		return nil, shared.StoreError("fetch "+collection, err)
	}
	return &m, nil
}

func toDocument(m *DocumentModel) (shared.Document, error) {
	doc := shared.Document{}
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &doc); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", m.Collection, m.ID, err)
		}
	}
	doc[shared.FieldID] = m.ID
	doc[shared.FieldCreatedAt] = m.CreatedAt
	doc[shared.FieldUpdatedAt] = m.UpdatedAt
	return doc, nil
}
