package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricBulkItems     = "school.bulk.items"
	MetricReportReads   = "school.report.reads"
	MetricReportBuildMS = "school.report.build.duration"
)

// Recorder holds the service instruments. A nil *Recorder records nothing.
type Recorder struct {
	bulkItems   metric.Int64Counter
	reportReads metric.Int64Counter
	reportBuild metric.Float64Histogram
}

// NewRecorder creates the instruments on mp, or on the global provider
// when mp is nil.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(InstrumentationName)

	bulkItems, err := meter.Int64Counter(MetricBulkItems,
		metric.WithDescription("Bulk generation items by outcome"),
		metric.WithUnit("{item}"))
	if err != nil {
		return nil, err
	}
	reportReads, err := meter.Int64Counter(MetricReportReads,
		metric.WithDescription("Module report reads by cache outcome"),
		metric.WithUnit("{read}"))
	if err != nil {
		return nil, err
	}
	reportBuild, err := meter.Float64Histogram(MetricReportBuildMS,
		metric.WithDescription("Time spent deriving a module report"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Recorder{bulkItems: bulkItems, reportReads: reportReads, reportBuild: reportBuild}, nil
}

// BulkItem counts one finished bulk item.
func (r *Recorder) BulkItem(ctx context.Context, failed bool) {
	if r == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	r.bulkItems.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ReportRead counts one report read.
func (r *Recorder) ReportRead(ctx context.Context, module string, hit bool) {
	if r == nil {
		return
	}
	r.reportReads.Add(ctx, 1, metric.WithAttributes(AttrModule.String(module), AttrCacheHit.Bool(hit)))
}

// ReportBuilt records how long a report derivation took.
func (r *Recorder) ReportBuilt(ctx context.Context, module string, d time.Duration) {
	if r == nil {
		return
	}
	r.reportBuild.Record(ctx, float64(d.Microseconds())/1000, metric.WithAttributes(AttrModule.String(module)))
}
