package operations

import (
	"sync"
	"time"

	"dwcli/pkg/contracts/domain"
)

// State is the complete state of one run: lifecycle status, per-step
// outcomes, and the staged data layers. Steps execute sequentially, so
// the data layers have a single writer at a time; the mutex protects
// concurrent status reads from the HTTP surface while a run is active.
type State struct {
	mu sync.RWMutex

	id        string
	status    domain.RunStatus
	startTime time.Time
	endTime   *time.Time
	runErr    error

	order []string
	steps map[string]*StepState

	raw         map[domain.Entity][]domain.RawRecord
	conformed   domain.ConformedLayer
	dimensional domain.DimensionalLayer
	report      *domain.ValidationReport
}

// NewState creates the state for a new run.
func NewState(id string) *State {
	return &State{
		id:        id,
		status:    domain.RunStatusRunning,
		startTime: time.Now(),
		steps:     make(map[string]*StepState),
		raw:       make(map[domain.Entity][]domain.RawRecord),
	}
}

// ID returns the run identifier.
func (s *State) ID() string {
	return s.id
}

// Status returns the current run status.
func (s *State) Status() domain.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Finish records the terminal status of the run.
func (s *State) Finish(status domain.RunStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.endTime = &now
	s.status = status
	s.runErr = err
}

// AddStep registers a step state in execution order.
func (s *State) AddStep(step *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, step.id)
	s.steps[step.id] = step
}

// Step returns the state of a registered step.
func (s *State) Step(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps[id]
}

// SetRaw stores the extracted records for one source entity.
func (s *State) SetRaw(entity domain.Entity, records []domain.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[entity] = records
}

// Raw returns the extracted records for one source entity.
func (s *State) Raw(entity domain.Entity) []domain.RawRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw[entity]
}

// SetConformed stores the cleaned intermediate layer.
func (s *State) SetConformed(layer domain.ConformedLayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conformed = layer
}

// Conformed returns the cleaned intermediate layer.
func (s *State) Conformed() domain.ConformedLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conformed
}

// SetDimensional stores the assembled star-schema layer.
func (s *State) SetDimensional(layer domain.DimensionalLayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimensional = layer
}

// Dimensional returns the assembled star-schema layer.
func (s *State) Dimensional() domain.DimensionalLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensional
}

// SetReport stores the quality report for the run.
func (s *State) SetReport(report *domain.ValidationReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
}

// Report returns the quality report, nil until validation ran.
func (s *State) Report() *domain.ValidationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Result returns a point-in-time snapshot of the run as a run log.
func (s *State) Result() domain.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := domain.RunResult{
		ID:        s.id,
		StartedAt: s.startTime,
		Status:    s.status,
		Report:    s.report,
	}
	if s.endTime != nil {
		result.FinishedAt = *s.endTime
	}
	if s.runErr != nil {
		result.Error = s.runErr.Error()
	}
	for _, id := range s.order {
		result.Stages = append(result.Stages, s.steps[id].Result())
	}
	if s.status == domain.RunStatusSucceeded || s.status == domain.RunStatusViolations {
		result.RowsPerTarget = s.dimensional.RowCounts()
	}
	return result
}
