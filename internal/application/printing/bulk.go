package printing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Bulk delay bounds between two items of a run.
const (
	MinBulkDelay = 1500 * time.Millisecond
	MaxBulkDelay = 2 * time.Second
)

// DefaultRetention is how long a finished job stays pollable.
const DefaultRetention = time.Hour

// ItemFunc produces the document of one bulk target.
type ItemFunc func(ctx context.Context, target Target) error

// ProgressFunc observes the cumulative progress after every item.
type ProgressFunc func(job printing.BulkJobView)

// BulkGenerator runs bulk document generation one item at a time with a
// fixed pause between items. Runs cannot be cancelled.
type BulkGenerator struct {
	delay     time.Duration
	retention time.Duration
	wait      func(time.Duration)
	now       func() time.Time
	logger    *zap.Logger
	metrics   *telemetry.Recorder

	mu   sync.RWMutex
	jobs map[string]*printing.BulkJob
	wg   sync.WaitGroup
}

// NewBulkGenerator creates a generator; delay is clamped to
// [MinBulkDelay, MaxBulkDelay].
func NewBulkGenerator(delay time.Duration, logger *zap.Logger) *BulkGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkGenerator{
		delay:     ClampDelay(delay),
		retention: DefaultRetention,
		wait:      time.Sleep,
		now:       time.Now,
		logger:    logger,
		jobs:      make(map[string]*printing.BulkJob),
	}
}

// SetRetention sets how long finished jobs are kept. Non-positive values
// keep the default.
func (g *BulkGenerator) SetRetention(d time.Duration) {
	if d > 0 {
		g.retention = d
	}
}

// SetRecorder counts finished items on rec.
func (g *BulkGenerator) SetRecorder(rec *telemetry.Recorder) {
	g.metrics = rec
}

// ClampDelay bounds a configured inter-item delay.
func ClampDelay(d time.Duration) time.Duration {
	return min(max(d, MinBulkDelay), MaxBulkDelay)
}

// SetWait replaces the pause function, time.Sleep by default.
func (g *BulkGenerator) SetWait(wait func(time.Duration)) {
	g.wait = wait
}

// Delay returns the pause between items.
func (g *BulkGenerator) Delay() time.Duration { return g.delay }

// Start registers a job and runs it in the background. The run is detached
// from ctx cancellation so a closed request does not stop it.
func (g *BulkGenerator) Start(ctx context.Context, label string, targets []Target, fn ItemFunc, onProgress ProgressFunc) printing.BulkJobView {
	job := g.register(label, len(targets))

	detached := context.WithoutCancel(ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.run(detached, job, targets, fn, onProgress)
	}()
	return job.Snapshot()
}

// Run executes a job synchronously and returns its final state.
func (g *BulkGenerator) Run(ctx context.Context, label string, targets []Target, fn ItemFunc, onProgress ProgressFunc) printing.BulkJobView {
	job := g.register(label, len(targets))
	g.run(ctx, job, targets, fn, onProgress)
	return job.Snapshot()
}

// register adds a new job, first dropping jobs finished longer than the
// retention ago.
func (g *BulkGenerator) register(label string, total int) *printing.BulkJob {
	job := printing.NewBulkJob(uuid.NewString(), label, total)
	cutoff := g.now().Add(-g.retention)

	g.mu.Lock()
	defer g.mu.Unlock()
	evicted := 0
	for id, j := range g.jobs {
		v := j.Snapshot()
		if v.Status.IsTerminal() && v.FinishedAt != nil && v.FinishedAt.Before(cutoff) {
			delete(g.jobs, id)
			evicted++
		}
	}
	if evicted > 0 {
		g.logger.Debug("Evicted finished bulk jobs", zap.Int("count", evicted))
	}
	g.jobs[job.ID()] = job
	return job
}

func (g *BulkGenerator) run(ctx context.Context, job *printing.BulkJob, targets []Target, fn ItemFunc, onProgress ProgressFunc) {
	ctx, span := telemetry.StartSpan(ctx, "bulk.run",
		telemetry.AttrJobID.String(job.ID()),
		telemetry.AttrJobTotal.Int(len(targets)))
	defer span.End()

	logger := g.logger.With(zap.String("job", job.ID()))
	job.Start(g.now())
	logger.Info("Bulk generation started", zap.Int("total", len(targets)))

	for i, t := range targets {
		err := g.item(ctx, t, fn)
		p := job.Record(t.Label, err)
		g.metrics.BulkItem(ctx, err != nil)
		if err != nil {
			logger.Warn("Bulk item failed",
				zap.String("target", t.ID),
				zap.String("label", t.Label),
				zap.Error(err))
		}
		if onProgress != nil {
			onProgress(job.Snapshot())
		}
		logger.Debug("Bulk progress",
			zap.Int("done", p.Done),
			zap.Int("successCount", p.SuccessCount),
			zap.Int("errorCount", p.ErrorCount))

		if i < len(targets)-1 {
			g.wait(g.delay)
		}
	}

	job.Finish(g.now())
	final := job.Snapshot()
	if err := final.Err(); err != nil {
		telemetry.RecordError(span, err)
		logger.Warn("Bulk generation finished with failures", zap.Error(err))
		return
	}
	logger.Info("Bulk generation completed",
		zap.Int("successCount", final.Progress.SuccessCount),
		zap.Int("errorCount", final.Progress.ErrorCount))
}

// item runs one target, converting a panic into an item error.
func (g *BulkGenerator) item(ctx context.Context, t Target, fn ItemFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return fn(ctx, t)
}

type panicError struct{ value any }

func (e *panicError) Error() string { return "document generation panicked" }

// Job returns the current state of a job.
func (g *BulkGenerator) Job(id string) (printing.BulkJobView, bool) {
	g.mu.RLock()
	job, ok := g.jobs[id]
	g.mu.RUnlock()
	if !ok {
		return printing.BulkJobView{}, false
	}
	return job.Snapshot(), true
}

// Wait blocks until every background run has finished.
func (g *BulkGenerator) Wait() {
	g.wg.Wait()
}
