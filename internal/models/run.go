package models

import "time"

// RunStatus enumerates the lifecycle states of an [ImportRun].
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ImportRun journals one execution of an import task.
type ImportRun struct {
	ID           string     `json:"id"`
	Sequence     int        `json:"sequence"`
	Task         string     `json:"task"`
	Status       RunStatus  `json:"status"`
	DryRun       bool       `json:"dry_run"`
	Total        int        `json:"total"`
	Imported     int        `json:"imported"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewImportRun creates a running journal entry for task.
func NewImportRun(task string, dryRun bool) *ImportRun {
	return &ImportRun{
		Task:      task,
		Status:    RunRunning,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
}

func (r *ImportRun) Key() string { return r.ID }

func (r *ImportRun) Validate() error {
	if blank(r.Task) {
		return invalid("import run", "task is required")
	}
	switch r.Status {
	case RunRunning, RunCompleted, RunFailed:
	default:
		return invalid("import run", "unknown status %q", r.Status)
	}
	return nil
}

// Finish marks the run completed, or failed when err is non-nil.
func (r *ImportRun) Finish(err error) {
	now := time.Now().UTC()
	r.CompletedAt = &now
	r.Status = RunCompleted
	if err != nil {
		r.Status = RunFailed
		r.ErrorMessage = err.Error()
	}
}

// Duration returns how long the run took, or has taken so far.
func (r *ImportRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
