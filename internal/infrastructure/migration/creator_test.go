package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"index fee chalans", "index_fee_chalans"},
		{"Add-Hostel-Rooms", "add_hostel_rooms"},
		{"ADD__TRIPS", "add_trips"},
		{"  spaces  ", "spaces"},
		{"menu!@#items", "menuitems"},
		{"_leading-", "leading"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("numbers after the highest existing version", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_create_documents.up.sql"), []byte("--"), 0o644))

		mf, err := CreateMigration(dir, "Index Fee Chalans", "speed up overdue scans")
		require.NoError(t, err)

		assert.Equal(t, uint(8), mf.Version)
		assert.Equal(t, filepath.Join(dir, "000008_index_fee_chalans.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000008_index_fee_chalans.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "-- index_fee_chalans")
		assert.Contains(t, string(up), "-- speed up overdue scans")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "rollback index_fee_chalans")
	})

	t.Run("starts at one and creates the directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		mf, err := CreateMigration(dir, "init", "")
		require.NoError(t, err)
		assert.Equal(t, uint(1), mf.Version)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Equal(t, "-- init\n\n", string(up))
	})

	t.Run("rejects names without letters or digits", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "--", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by version and pairs directions", func(t *testing.T) {
		fsys := fstest.MapFS{
			"000002_index_document_fields.up.sql": {Data: []byte("--")},
			"000001_create_documents.up.sql":      {Data: []byte("--")},
			"000001_create_documents.down.sql":    {Data: []byte("--")},
			"000010_seed_classes.up.sql":          {Data: []byte("--")},
			"README.md":                           {Data: []byte("docs")},
			"notes.sql":                           {Data: []byte("--")},
			"000003_bad.sideways.sql":             {Data: []byte("--")},
			"archive.up.sql/000004_old.up.sql":    {Data: []byte("--")},
		}

		entries, err := ListMigrations(fsys)
		require.NoError(t, err)
		assert.Equal(t, []Entry{
			{Version: 1, Name: "create_documents", HasDown: true},
			{Version: 2, Name: "index_document_fields"},
			{Version: 10, Name: "seed_classes"},
		}, entries)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		entries, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("bundled schema is complete", func(t *testing.T) {
		entries, err := ListMigrations(os.DirFS(filepath.Join("..", "..", "..", "migrations")))
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, "create_documents", entries[0].Name)
		for _, e := range entries {
			assert.True(t, e.HasDown, "migration %d has no rollback", e.Version)
		}
	})
}
