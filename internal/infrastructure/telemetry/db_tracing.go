package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures query tracing on a gorm connection.
type DBTracingConfig struct {
	DBSystem           string // reported as db.system, default "postgresql"
	FullSQL            bool   // keep query variables in spans
	SlowQueryThreshold time.Duration
	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
}

const queryStartKey = "telemetry:query_start"

// RegisterDBTracing instruments db with otelgorm and flags queries slower
// than the threshold on their span and in the log.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	// timing callbacks go first so the after hook runs while the
	// otelgorm span is still open
	if err := registerTiming(db, cfg.SlowQueryThreshold, logger); err != nil {
		return err
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.FullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("full_sql", cfg.FullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold))
	return nil
}

type registerFunc func(name string, fn func(*gorm.DB)) error

func registerTiming(db *gorm.DB, threshold time.Duration, logger *zap.Logger) error {
	cb := db.Callback()
	hooks := []struct {
		op            string
		before, after registerFunc
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	start := func(tx *gorm.DB) { tx.InstanceSet(queryStartKey, time.Now()) }
	finish := func(tx *gorm.DB) { observeQuery(tx, threshold, logger) }
	for _, h := range hooks {
		if err := h.before("telemetry:before_"+h.op, start); err != nil {
			return err
		}
		if err := h.after("telemetry:after_"+h.op, finish); err != nil {
			return err
		}
	}
	return nil
}

func observeQuery(tx *gorm.DB, threshold time.Duration, logger *zap.Logger) {
	v, ok := tx.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	started, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(started)

	span := trace.SpanFromContext(tx.Statement.Context)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("db.sql.table", tx.Statement.Table),
			attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			RecordError(span, tx.Error)
		}
	}
	if elapsed <= threshold {
		return
	}
	if span.IsRecording() {
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", threshold.Milliseconds())))
	}
	logger.Warn("Slow query",
		zap.String("table", tx.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.String("trace_id", TraceID(tx.Statement.Context)))
}
