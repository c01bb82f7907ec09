package persistence

import (
	"context"
	"fmt"

	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/firestoredb"
	"github.com/schoolerp/backend/internal/infrastructure/persistence/mongodb"
	gormlogger "gorm.io/gorm/logger"
)

// Backend is an opened document store with its lifecycle hooks.
type Backend struct {
	Store  shared.DocumentStore
	Driver string
	Ping   func(ctx context.Context) error
	Close  func() error
}

// OpenBackend opens the document store selected by store.driver. The
// database options only apply to the postgres driver.
func OpenBackend(ctx context.Context, cfg *config.Config, log gormlogger.Interface, opts ...DatabaseOption) (*Backend, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := NewDatabase(&cfg.Database, log, opts...)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:  NewGormDocumentStore(db.DB),
			Driver: cfg.Store.Driver,
			Ping:   db.Ping,
			Close:  db.Close,
		}, nil
	case "firestore":
		fs, err := firestoredb.New(ctx, cfg.Firestore)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: fs, Driver: cfg.Store.Driver, Ping: fs.Ping, Close: fs.Close}, nil
	case "mongo":
		ms, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: ms, Driver: cfg.Store.Driver, Ping: ms.Ping, Close: ms.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
