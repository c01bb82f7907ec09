package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/schoolerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the postgres pool behind the documents table
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// DatabaseOption configures the gorm connection once it is open
type DatabaseOption func(*gorm.DB) error

// WithTracing instruments every query with OpenTelemetry spans
func WithTracing(cfg telemetry.DBTracingConfig, logger *zap.Logger) DatabaseOption {
	return func(db *gorm.DB) error {
		return telemetry.RegisterDBTracing(db, cfg, logger)
	}
}

// NewDatabase opens and sizes the pool, applies opts, then checks the server
// answers. A nil logger keeps gorm silent.
func NewDatabase(cfg *config.DatabaseConfig, log gormlogger.Interface, opts ...DatabaseOption) (*Database, error) {
	if log == nil {
		log = gormlogger.Discard
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	d, err := wrapDatabase(db)
	if err != nil {
		return nil, err
	}
	if err := d.apply(opts...); err != nil {
		_ = d.Close()
		return nil, err
	}

	d.sql.SetMaxOpenConns(cfg.MaxOpenConns)
	d.sql.SetMaxIdleConns(cfg.MaxIdleConns)
	d.sql.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	d.sql.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Ping(ctx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return d, nil
}

func wrapDatabase(db *gorm.DB) (*Database, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return &Database{DB: db, sql: sqlDB}, nil
}

func (d *Database) apply(opts ...DatabaseOption) error {
	for _, opt := range opts {
		if err := opt(d.DB); err != nil {
			return fmt.Errorf("configure database: %w", err)
		}
	}
	return nil
}

// Ping checks the pool can still reach postgres
func (d *Database) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Close releases every pooled connection
func (d *Database) Close() error {
	return d.sql.Close()
}
