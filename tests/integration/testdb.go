//go:build integration

// Package integration runs the document store and API against a real
// PostgreSQL started with testcontainers.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/schoolerp/backend/internal/infrastructure/migration"
	"github.com/schoolerp/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	containerOnce sync.Once
	container     *tcpostgres.PostgresContainer
	containerDSN  string
	containerErr  error
)

// TestDB is a migrated connection to the shared container
type TestDB struct {
	DB    *gorm.DB
	Store *persistence.GormDocumentStore
	t     *testing.T
}

// NewTestDB connects to the shared container, applying migrations on first
// use, and empties the documents table.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	containerOnce.Do(startContainer)
	require.NoError(t, containerErr, "Failed to start PostgreSQL container")

	cfg := &gorm.Config{Logger: gormlogger.Discard}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		cfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(containerDSN), cfg)
	require.NoError(t, err, "Failed to connect to database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tdb := &TestDB{DB: db, Store: persistence.NewGormDocumentStore(db), t: t}
	tdb.Truncate()
	return tdb
}

// Truncate removes every document
func (tdb *TestDB) Truncate() {
	tdb.t.Helper()
	require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE documents").Error)
}

func startContainer() {
	ctx := context.Background()
	container, containerErr = tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("school_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if containerErr != nil {
		return
	}
	containerDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
	if containerErr != nil {
		return
	}

	db, err := gorm.Open(gormpostgres.Open(containerDSN), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		containerErr = err
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		containerErr = err
		return
	}
	m, err := migration.New(sqlDB, migrationsDir(), nil)
	if err != nil {
		containerErr = err
		return
	}
	containerErr = m.Up()
	_ = m.Close()
}

// stopContainer terminates the shared container after the package's tests
func stopContainer() {
	if container != nil {
		_ = container.Terminate(context.Background())
	}
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
