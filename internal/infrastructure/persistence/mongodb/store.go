// Package mongodb backs the document store with MongoDB, one Mongo
// collection per named collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ shared.DocumentStore = (*Store)(nil)

// Store keeps documents with hex ObjectID identifiers.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Connect dials the server and verifies it with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return NewStore(client, cfg.Database), nil
}

// NewStore wraps an existing client.
func NewStore(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), now: time.Now}
}

// Ping checks server connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// FetchAll returns a collection ordered by createdAt.
func (s *Store) FetchAll(ctx context.Context, collection string, filter *shared.Filter) ([]shared.Document, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := bson.M{}
	if filter != nil {
		query[filter.Field] = filter.Value
	}
	opts := options.Find().SetSort(bson.D{{Key: shared.FieldCreatedAt, Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.db.Collection(collection).Find(ctx, query, opts)
	if err != nil {
		return nil, shared.StoreError("fetch "+collection, err)
	}
	defer cursor.Close(ctx)

	var docs []shared.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", collection, err)
		}
		docs = append(docs, toDocument(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, shared.StoreError("fetch "+collection, err)
	}
	return docs, nil
}

// FetchOne returns a single document.
func (s *Store) FetchOne(ctx context.Context, collection, id string) (shared.Document, error) {
	oid, err := s.objectID(collection, id)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	err = s.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shared.NewNotFoundError(collection, id)
	}
	if err != nil {
		return nil, shared.StoreError("fetch "+collection, err)
	}
	return toDocument(raw), nil
}

// Insert stores fields as a new document and stamps both timestamps.
func (s *Store) Insert(ctx context.Context, collection string, fields shared.Document) (string, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return "", err
	}
	now := s.now().UTC()
	doc := bson.M(fields.WithoutReserved())
	doc[shared.FieldCreatedAt] = now
	doc[shared.FieldUpdatedAt] = now

	res, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", shared.StoreError("insert "+collection, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert %s: unexpected id type %T", collection, res.InsertedID)
	}
	return oid.Hex(), nil
}

// Update $sets partial at the top level.
func (s *Store) Update(ctx context.Context, collection, id string, partial shared.Document) error {
	oid, err := s.objectID(collection, id)
	if err != nil {
		return err
	}
	set := bson.M(partial.WithoutReserved())
	set[shared.FieldUpdatedAt] = s.now().UTC()

	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return shared.StoreError("update "+collection, err)
	}
	if res.MatchedCount == 0 {
		return shared.NewNotFoundError(collection, id)
	}
	return nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	oid, err := s.objectID(collection, id)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return shared.StoreError("delete "+collection, err)
	}
	if res.DeletedCount == 0 {
		return shared.NewNotFoundError(collection, id)
	}
	return nil
}

func (s *Store) objectID(collection, id string) (primitive.ObjectID, error) {
	if err := shared.ValidateCollectionName(collection); err != nil {
		return primitive.NilObjectID, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, shared.NewNotFoundError(collection, id)
	}
	return oid, nil
}

// toDocument replaces _id with the hex id and converts BSON values to
// plain Go values.
func toDocument(raw bson.M) shared.Document {
	doc := make(shared.Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			if oid, ok := v.(primitive.ObjectID); ok {
				doc[shared.FieldID] = oid.Hex()
			}
			continue
		}
		doc[k] = plain(v)
	}
	return doc
}

func plain(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case bson.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plain(val)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plain(val)
		}
		return out
	}
	return v
}
