// Package report serves the per-module dashboards and their exports from the
// module collection caches.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/schoolerp/backend/internal/application/collection"
	"github.com/schoolerp/backend/internal/domain/report"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/cache"
	"github.com/schoolerp/backend/internal/infrastructure/export"
	"github.com/schoolerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// module is the report definition of one dashboard.
type module struct {
	build builder
	kinds map[string]tableFunc
}

var modules = map[string]module{
	collection.ModuleAccounts: {buildAccounts, map[string]tableFunc{
		KindTransactions: transactionsTable,
		KindInvoices:     invoicesTable,
		KindChalans:      chalansTable,
		KindSummary:      summaryTable,
	}},
	collection.ModuleLibrary: {buildLibrary, map[string]tableFunc{
		KindBooks:   booksTable,
		KindIssues:  issuesTable,
		KindSummary: summaryTable,
	}},
	collection.ModuleHostel: {buildHostel, map[string]tableFunc{
		KindResidents: residentsTable,
		KindPayments:  hostelPaymentsTable,
		KindSummary:   summaryTable,
	}},
	collection.ModuleTransport: {buildTransport, map[string]tableFunc{
		KindTrips:    tripsTable,
		KindPayments: transportPaymentsTable,
		KindSummary:  summaryTable,
	}},
	collection.ModuleCafeteria: {buildCafeteria, map[string]tableFunc{
		KindOrders:    ordersTable,
		KindInventory: inventoryTable,
		KindSummary:   summaryTable,
	}},
}

// Kinds returns the export kinds of a module in sorted order.
func Kinds(name string) []string {
	m, ok := modules[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m.kinds))
	for k := range m.kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Config configures the report service
type Config struct {
	TTL         time.Duration
	KeyPrefix   string
	XLSXEnabled bool
	Now         func() time.Time
	Logger      *zap.Logger
	Metrics     *telemetry.Recorder
}

// Service builds module reports. Serialized reports are cached per module
// cache version, so any cache mutation, and any other process, makes older
// entries unreachable.
type Service struct {
	caches *collection.Registry
	store  cache.ReportCache
	cfg    Config
	logger *zap.Logger
}

// File is a rendered export download.
type File struct {
	Data        []byte
	Filename    string
	ContentType string
	Rows        int
}

// NewService creates a new report service
func NewService(caches *collection.Registry, store cache.ReportCache, cfg Config) *Service {
	if store == nil {
		store = cache.NopReportCache{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{caches: caches, store: store, cfg: cfg, logger: cfg.Logger}
}

func (s *Service) module(name string) (module, *collection.Cache, error) {
	m, ok := modules[name]
	c, found := s.caches.Module(name)
	if !ok || !found {
		return module{}, nil, shared.NewNotFoundError("report module", name)
	}
	return m, c, nil
}

func (s *Service) key(name string, c *collection.Cache, r report.DateRange) string {
	return fmt.Sprintf("%s%s:%s:%s", s.cfg.KeyPrefix, name, c.Version(), r.Key())
}

// Report returns the serialized report of a module for a date range.
func (s *Service) Report(ctx context.Context, name string, r report.DateRange) (_ json.RawMessage, err error) {
	ctx, span := telemetry.StartSpan(ctx, "report.build", telemetry.AttrModule.String(name))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	m, c, err := s.module(name)
	if err != nil {
		return nil, err
	}
	if err := c.Ensure(ctx); err != nil {
		return nil, err
	}

	key := s.key(name, c, r)
	if data, ok, err := s.store.Get(ctx, key); err != nil {
		s.logger.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		s.logger.Debug("Report cache hit", zap.String("key", key))
		span.SetAttributes(telemetry.AttrCacheHit.Bool(true))
		s.cfg.Metrics.ReportRead(ctx, name, true)
		return data, nil
	}
	span.SetAttributes(telemetry.AttrCacheHit.Bool(false))
	s.cfg.Metrics.ReportRead(ctx, name, false)

	started := s.cfg.Now()
	b, err := m.build(c, r)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(b.report)
	if err != nil {
		return nil, fmt.Errorf("encode %s report: %w", name, err)
	}
	s.cfg.Metrics.ReportBuilt(ctx, name, s.cfg.Now().Sub(started))
	if err := s.store.Set(ctx, key, data, s.cfg.TTL); err != nil {
		s.logger.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}

// Export renders one export kind of a module report as CSV or XLSX.
func (s *Service) Export(ctx context.Context, name, kind, format string, r report.DateRange) (*File, error) {
	m, c, err := s.module(name)
	if err != nil {
		return nil, err
	}
	table, ok := m.kinds[kind]
	if !ok {
		return nil, shared.NewValidationError("unknown %s export %q, expected one of: %s", name, kind, strings.Join(Kinds(name), ", "))
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, shared.NewValidationError("%v", err)
	}
	if f == export.FormatXLSX && !s.cfg.XLSXEnabled {
		return nil, shared.NewValidationError("XLSX export is disabled")
	}
	if err := c.Ensure(ctx); err != nil {
		return nil, err
	}

	b, err := m.build(c, r)
	if err != nil {
		return nil, err
	}
	t := table(b)

	var buf bytes.Buffer
	switch f {
	case export.FormatXLSX:
		err = export.WriteXLSX(&buf, t)
	default:
		err = export.WriteCSV(&buf, t)
	}
	if err != nil {
		return nil, fmt.Errorf("write %s %s export: %w", name, kind, err)
	}

	s.logger.Info("Report exported",
		zap.String("module", name),
		zap.String("kind", kind),
		zap.String("format", string(f)),
		zap.Int("rows", t.Len()))
	return &File{
		Data:        buf.Bytes(),
		Filename:    export.Filename(name+"_"+kind, f, s.cfg.Now()),
		ContentType: f.ContentType(),
		Rows:        t.Len(),
	}, nil
}

// Reload refetches a module's collections and drops its cached reports.
func (s *Service) Reload(ctx context.Context, name string) error {
	_, c, err := s.module(name)
	if err != nil {
		return err
	}
	if err := c.Reload(ctx); err != nil {
		return err
	}
	if err := s.store.DeletePrefix(ctx, s.cfg.KeyPrefix+name+":"); err != nil {
		s.logger.Warn("Report cache invalidation failed", zap.String("module", name), zap.Error(err))
	}
	s.logger.Info("Module reloaded", zap.String("module", name), zap.Uint64("generation", c.Generation()))
	return nil
}
