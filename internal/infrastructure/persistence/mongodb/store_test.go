package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	doc := toDocument(bson.M{
		"_id":       oid,
		"name":      "Route 7",
		"createdAt": primitive.NewDateTimeFromTime(at),
		"stops":     bson.A{"Gate", bson.M{"name": "Market"}},
	})

	assert.Equal(t, oid.Hex(), doc.ID())
	created, ok := doc[shared.FieldCreatedAt].(time.Time)
	require.True(t, ok)
	assert.True(t, at.Equal(created))
	assert.NotContains(t, doc, "_id")
	assert.Equal(t, []any{"Gate", map[string]any{"name": "Market"}}, doc["stops"])
}

func TestStore_RoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	store, err := Connect(ctx, config.MongoConfig{URI: uri, Database: "school_test", ConnectTimeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Close()
	})

	id, err := store.Insert(ctx, "users", shared.Document{"name": "Ayesha", "role": "student"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, "users", shared.Document{"name": "Mr. Khan", "role": "teacher"})
	require.NoError(t, err)

	students, err := store.FetchAll(ctx, "users", shared.Eq("role", "student"))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, id, students[0].ID())

	require.NoError(t, store.Update(ctx, "users", id, shared.Document{"phone": "0300"}))
	doc, err := store.FetchOne(ctx, "users", id)
	require.NoError(t, err)
	assert.Equal(t, "0300", doc["phone"])

	require.NoError(t, store.Delete(ctx, "users", id))
	assert.ErrorIs(t, store.Delete(ctx, "users", id), shared.ErrNotFound)
	_, err = store.FetchOne(ctx, "users", "zzz")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
