package printing

import (
	"fmt"
	"sync"
	"time"

	"github.com/schoolerp/backend/internal/domain/shared"
)

// ItemError records one failed bulk item.
type ItemError struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

// Progress is the cumulative state reported after every bulk item.
type Progress struct {
	Total        int `json:"total"`
	Done         int `json:"done"`
	SuccessCount int `json:"successCount"`
	ErrorCount   int `json:"errorCount"`
}

// BulkJob tracks a serial bulk generation run. It is safe for concurrent
// reads while the run updates it.
type BulkJob struct {
	mu         sync.RWMutex
	id         string
	label      string
	status     JobStatus
	progress   Progress
	errors     []ItemError
	startedAt  time.Time
	finishedAt time.Time
}

// BulkJobView is a point-in-time copy of a job.
type BulkJobView struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Status     JobStatus   `json:"status"`
	Progress   Progress    `json:"progress"`
	Errors     []ItemError `json:"errors"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}

// NewBulkJob creates a pending job over total targets.
func NewBulkJob(id, label string, total int) *BulkJob {
	return &BulkJob{
		id:       id,
		label:    label,
		status:   JobStatusPending,
		progress: Progress{Total: total},
	}
}

// ID returns the job ID.
func (j *BulkJob) ID() string { return j.id }

// Start moves the job to running.
func (j *BulkJob) Start(now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.CanTransitionTo(JobStatusRunning) {
		j.status = JobStatusRunning
		j.startedAt = now
	}
}

// Record counts one finished item and returns the cumulative progress.
func (j *BulkJob) Record(target string, err error) Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress.Done++
	if err != nil {
		j.progress.ErrorCount++
		j.errors = append(j.errors, ItemError{Target: target, Message: err.Error()})
	} else {
		j.progress.SuccessCount++
	}
	return j.progress
}

// Finish moves the job to completed, or partial when any item failed.
func (j *BulkJob) Finish(now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	target := JobStatusCompleted
	if j.progress.ErrorCount > 0 {
		target = JobStatusPartial
	}
	if j.status.CanTransitionTo(target) {
		j.status = target
		j.finishedAt = now
	}
}

// Snapshot returns a consistent copy of the job.
func (j *BulkJob) Snapshot() BulkJobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	v := BulkJobView{
		ID:        j.id,
		Label:     j.label,
		Status:    j.status,
		Progress:  j.progress,
		Errors:    append([]ItemError{}, j.errors...),
		StartedAt: j.startedAt,
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		v.FinishedAt = &t
	}
	return v
}

// Err returns ErrBulkPartial with the failure count for a partial run.
func (v BulkJobView) Err() error {
	if v.Status != JobStatusPartial {
		return nil
	}
	return fmt.Errorf("%w: %d of %d failed", shared.ErrBulkPartial, v.Progress.ErrorCount, v.Progress.Total)
}
