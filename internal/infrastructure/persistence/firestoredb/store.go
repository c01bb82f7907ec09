// Package firestoredb backs the document store with Cloud Firestore.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ shared.DocumentStore = (*Store)(nil)

// Store maps each collection name to a Firestore collection.
type Store struct {
	client *firestore.Client
}

// New initializes the Firebase app and its Firestore client. Without a
// credentials file the default application credentials (or the emulator)
// are used.
func New(ctx context.Context, cfg config.FirestoreConfig) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping reads a sentinel document to check connectivity; a missing
// document still proves the backend answered.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection("_health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

// FetchAll returns a collection ordered by createdAt.
func (s *Store) FetchAll(ctx context.Context, collection string, filter *shared.Filter) ([]shared.Document, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	q := s.client.Collection(collection).Query
	if filter != nil {
		q = q.Where(filter.Field, "==", filter.Value)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []shared.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, shared.StoreError("fetch "+collection, err)
		}
		docs = append(docs, toDocument(snap))
	}
	slices.SortStableFunc(docs, func(a, b shared.Document) int {
		return createdAt(a).Compare(createdAt(b))
	})
	return docs, nil
}

// FetchOne returns a single document.
func (s *Store) FetchOne(ctx context.Context, collection, id string) (shared.Document, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return nil, err
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(collection, id, err)
	}
	return toDocument(snap), nil
}

// Insert adds a document with server-side timestamps.
func (s *Store) Insert(ctx context.Context, collection string, fields shared.Document) (string, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return "", err
	}
	data := map[string]any(fields.WithoutReserved())
	data[shared.FieldCreatedAt] = firestore.ServerTimestamp
	data[shared.FieldUpdatedAt] = firestore.ServerTimestamp

	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", shared.StoreError("insert "+collection, err)
	}
	return ref.ID, nil
}

// Update merges partial at the top level. Firestore rejects updates of
// missing documents with NotFound.
func (s *Store) Update(ctx context.Context, collection, id string, partial shared.Document) error {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return err
	}
	fields := partial.WithoutReserved()
	updates := make([]firestore.Update, 0, len(fields)+1)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: fields[k]})
	}
	updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{shared.FieldUpdatedAt}, Value: firestore.ServerTimestamp})

	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return mapError(collection, id, err)
	}
	return nil
}

// Delete removes a document, failing when it does not exist.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return err
	}
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapError(collection, id, err)
	}
	return nil
}

func toDocument(snap *firestore.DocumentSnapshot) shared.Document {
	doc := shared.Document(snap.Data())
	if doc == nil {
		doc = shared.Document{}
	}
	doc[shared.FieldID] = snap.Ref.ID
	return doc
}

func createdAt(d shared.Document) time.Time {
	t, _ := d[shared.FieldCreatedAt].(time.Time)
	return t
}

func mapError(collection, id string, err error) error {
	if status.Code(err) == codes.NotFound {
		return shared.NewNotFoundError(collection, id)
	}
	return shared.StoreError(collection+"/"+id, err)
}
