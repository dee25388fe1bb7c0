// Package operations orchestrates one batch pipeline run as an ordered
// sequence of steps over a shared staged state. A run either replaces
// the warehouse wholesale or leaves it at its last committed generation.
package operations

import (
	"context"
	"sync"
	"time"

	"dwcli/pkg/contracts/domain"
)

// Step is a single pipeline stage. Steps execute sequentially and
// communicate through the run State.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() string

	// Name returns the human-readable name for this step.
	Name() string

	// Execute runs the step against the shared run state.
	Execute(ctx context.Context, state *State) error
}

// StepStatus is the lifecycle status of one step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepState is the runtime state of one step within a run.
type StepState struct {
	mu        sync.RWMutex
	id        string
	name      string
	status    StepStatus
	startTime *time.Time
	endTime   *time.Time
	rows      int
	err       error
}

// NewStepState creates a pending step state.
func NewStepState(id, name string) *StepState {
	return &StepState{id: id, name: name, status: StepStatusPending}
}

// Start marks the step active and records the start time.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.startTime = &now
	s.status = StepStatusActive
}

// Complete marks the step completed with the number of rows it produced.
func (s *StepState) Complete(rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.endTime = &now
	s.status = StepStatusCompleted
	s.rows = rows
}

// Fail marks the step failed with the given error.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.endTime = &now
	s.status = StepStatusFailed
	s.err = err
}

// Status returns the current lifecycle status.
func (s *StepState) Status() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Duration returns the elapsed execution time of the step.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime == nil {
		return 0
	}
	if s.endTime != nil {
		return s.endTime.Sub(*s.startTime)
	}
	return time.Since(*s.startTime)
}

// Result returns the step outcome as a run log entry.
func (s *StepState) Result() domain.StageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := domain.StageResult{
		ID:   s.id,
		Name: s.name,
		Rows: s.rows,
	}
	if s.startTime != nil && s.endTime != nil {
		result.Duration = s.endTime.Sub(*s.startTime)
	}
	if s.err != nil {
		result.Error = s.err.Error()
	}
	return result
}
