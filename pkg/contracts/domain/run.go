package domain

import (
	"time"
)

// RunStatus is the terminal status of one batch run.
type RunStatus string

const (
	RunStatusRunning    RunStatus = "running"
	RunStatusSucceeded  RunStatus = "succeeded"
	RunStatusFailed     RunStatus = "failed"
	// RunStatusViolations means every stage completed and the warehouse was
	// replaced, but at least one blocking quality rule reported violations.
	RunStatusViolations RunStatus = "completed_with_violations"
)

// StageResult records the outcome and elapsed time of one pipeline stage,
// mirroring an operational run log line.
type StageResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunResult is the outcome of one full batch run: per-target row counts,
// per-stage timings, and the quality report produced at the end.
type RunResult struct {
	ID            string            `json:"id"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
	Status        RunStatus         `json:"status"`
	Stages        []StageResult     `json:"stages"`
	RowsPerTarget map[string]int    `json:"rows_per_target"`
	Report        *ValidationReport `json:"report,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// Duration returns the total elapsed time of the run.
func (r RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
