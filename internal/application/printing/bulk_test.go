package printing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestGenerator(logger *zap.Logger) (*BulkGenerator, *[]time.Duration) {
	g := NewBulkGenerator(0, logger)
	var waits []time.Duration
	g.wait = func(d time.Duration) { waits = append(waits, d) }
	return g, &waits
}

func TestClampDelay(t *testing.T) {
	assert.Equal(t, MinBulkDelay, ClampDelay(0))
	assert.Equal(t, MinBulkDelay, ClampDelay(time.Second))
	assert.Equal(t, 1800*time.Millisecond, ClampDelay(1800*time.Millisecond))
	assert.Equal(t, MaxBulkDelay, ClampDelay(5*time.Second))
}

func TestBulkGenerator_RunCountsAndContinues(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g, waits := newTestGenerator(zap.New(core))

	targets := []Target{{ID: "s1", Label: "Ayesha"}, {ID: "s2", Label: "Bilal"}, {ID: "s3", Label: "Chen"}}
	var seen []string
	var progress []printing.Progress

	view := g.Run(context.Background(), "Grade 7", targets,
		func(_ context.Context, t Target) error {
			seen = append(seen, t.ID)
			if t.ID == "s2" {
				return errors.New("render failed")
			}
			return nil
		},
		func(job printing.BulkJobView) { progress = append(progress, job.Progress) },
	)

	assert.Equal(t, []string{"s1", "s2", "s3"}, seen)
	assert.Equal(t, printing.JobStatusPartial, view.Status)
	assert.Equal(t, printing.Progress{Total: 3, Done: 3, SuccessCount: 2, ErrorCount: 1}, view.Progress)
	assert.Equal(t, []printing.ItemError{{Target: "Bilal", Message: "render failed"}}, view.Errors)
	require.NotNil(t, view.FinishedAt)

	require.Len(t, progress, 3)
	assert.Equal(t, printing.Progress{Total: 3, Done: 1, SuccessCount: 1}, progress[0])
	assert.Equal(t, printing.Progress{Total: 3, Done: 2, SuccessCount: 1, ErrorCount: 1}, progress[1])

	// a pause between items, none after the last
	assert.Equal(t, []time.Duration{MinBulkDelay, MinBulkDelay}, *waits)

	assert.Equal(t, 1, logs.FilterMessage("Bulk item failed").Len())
}

func TestBulkGenerator_PanicBecomesItemError(t *testing.T) {
	g, _ := newTestGenerator(nil)

	view := g.Run(context.Background(), "x", []Target{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}},
		func(_ context.Context, t Target) error {
			if t.ID == "a" {
				panic("boom")
			}
			return nil
		}, nil)

	assert.Equal(t, 1, view.Progress.ErrorCount)
	assert.Equal(t, 1, view.Progress.SuccessCount)
}

func TestBulkGenerator_StartIsDetached(t *testing.T) {
	g, _ := newTestGenerator(nil)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var ctxErrs []error
	release := make(chan struct{})

	started := g.Start(ctx, "detached", []Target{{ID: "a"}, {ID: "b"}},
		func(itemCtx context.Context, _ Target) error {
			<-release
			mu.Lock()
			ctxErrs = append(ctxErrs, itemCtx.Err())
			mu.Unlock()
			return nil
		}, nil)
	assert.Equal(t, 2, started.Progress.Total)

	cancel()
	close(release)
	g.Wait()

	view, ok := g.Job(started.ID)
	require.True(t, ok)
	assert.Equal(t, printing.JobStatusCompleted, view.Status)
	assert.Equal(t, 2, view.Progress.SuccessCount)
	assert.Equal(t, []error{nil, nil}, ctxErrs)

	_, ok = g.Job("missing")
	assert.False(t, ok)
}

func TestBulkGenerator_EvictsExpiredJobs(t *testing.T) {
	g, _ := newTestGenerator(nil)
	g.SetRetention(time.Hour)
	at := time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return at }
	ok := func(context.Context, Target) error { return nil }

	old := g.Run(context.Background(), "old", []Target{{ID: "a"}}, ok, nil)
	at = at.Add(30 * time.Minute)
	recent := g.Run(context.Background(), "recent", []Target{{ID: "b"}}, ok, nil)

	at = at.Add(45 * time.Minute)
	latest := g.Run(context.Background(), "latest", []Target{{ID: "c"}}, ok, nil)

	_, found := g.Job(old.ID)
	assert.False(t, found, "finished more than an hour ago")
	_, found = g.Job(recent.ID)
	assert.True(t, found)
	_, found = g.Job(latest.ID)
	assert.True(t, found)
}

func TestBulkGenerator_PartialRunLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	g, _ := newTestGenerator(zap.New(core))

	view := g.Run(context.Background(), "x", []Target{{ID: "a", Label: "A"}},
		func(context.Context, Target) error { return errors.New("render failed") }, nil)

	assert.Equal(t, printing.JobStatusPartial, view.Status)
	entries := logs.FilterMessage("Bulk generation finished with failures").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "1 of 1 failed")
}

func TestBulkGenerator_Telemetry(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	rec, err := telemetry.NewRecorder(mp)
	require.NoError(t, err)

	g, _ := newTestGenerator(zap.NewNop())
	g.SetRecorder(rec)
	view := g.Run(context.Background(), "x", []Target{{ID: "a"}, {ID: "b"}},
		func(_ context.Context, tg Target) error {
			if tg.ID == "b" {
				return errors.New("render failed")
			}
			return nil
		}, nil)
	require.Equal(t, printing.JobStatusPartial, view.Status)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "bulk.run", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), telemetry.AttrJobID.String(view.ID))
	assert.Contains(t, spans[0].Attributes(), telemetry.AttrJobTotal.Int(2))
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	var total int64
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != telemetry.MetricBulkItems {
			continue
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
	}
	assert.Equal(t, int64(2), total)
}
