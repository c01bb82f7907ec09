package firestoredb

import (
	"context"
	"os"
	"testing"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against the Firestore emulator only.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	store, err := New(context.Background(), config.FirestoreConfig{ProjectID: "school-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := newEmulatorStore(t)
	ctx := context.Background()
	collection := "users_" + t.Name()

	id, err := store.Insert(ctx, collection, shared.Document{"name": "Ayesha", "role": "student"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, collection, shared.Document{"name": "Mr. Khan", "role": "teacher"})
	require.NoError(t, err)

	students, err := store.FetchAll(ctx, collection, shared.Eq("role", "student"))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, id, students[0].ID())

	require.NoError(t, store.Update(ctx, collection, id, shared.Document{"phone": "0300"}))
	doc, err := store.FetchOne(ctx, collection, id)
	require.NoError(t, err)
	assert.Equal(t, "0300", doc["phone"])
	assert.Equal(t, "Ayesha", doc["name"])

	require.NoError(t, store.Delete(ctx, collection, id))
	assert.ErrorIs(t, store.Delete(ctx, collection, id), shared.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, collection, id, shared.Document{"x": 1}), shared.ErrNotFound)
	_, err = store.FetchOne(ctx, collection, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
