package operations

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	apperrors "dwcli/internal/errors"
	"dwcli/internal/infrastructure"
	"dwcli/pkg/contracts/domain"
)

// ProgressHub receives run progress updates. The websocket hub
// implements it; a nil hub disables broadcasting.
type ProgressHub interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}

// Broadcast event types.
const (
	EventRunStatus    = "run:status"
	EventStepProgress = "run:progress"
	EventRunComplete  = "run:complete"
)

type noopHub struct{}

func (noopHub) BroadcastUpdate(string, string, string, interface{}) {}

// Manager executes batch runs sequentially. Runs are single-flight: a
// second Execute while one is active is rejected with a conflict error,
// never queued.
type Manager struct {
	logger  *slog.Logger
	hub     ProgressHub
	metrics *infrastructure.PipelineMetrics
	tracer  *RunTracer
	steps   []Step

	mu       sync.RWMutex
	activeID string
	runs     map[string]*State
}

// NewManager creates a run manager over the given pipeline steps.
func NewManager(logger *slog.Logger, hub ProgressHub, metrics *infrastructure.PipelineMetrics, steps ...Step) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = noopHub{}
	}
	return &Manager{
		logger:  logger,
		hub:     hub,
		metrics: metrics,
		tracer:  NewRunTracer(),
		steps:   steps,
		runs:    make(map[string]*State),
	}
}

// Execute runs the full pipeline once and returns the run log. The
// returned error is nil whenever the run reached a terminal status
// itself, including completed_with_violations.
func (m *Manager) Execute(ctx context.Context) (domain.RunResult, error) {
	runID := uuid.New().String()

	if err := m.acquire(runID); err != nil {
		return domain.RunResult{}, err
	}
	defer m.release()

	state := NewState(runID)
	for _, step := range m.steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}
	m.mu.Lock()
	m.runs[runID] = state
	m.mu.Unlock()

	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, runSpan := m.tracer.TraceRun(ctx, runID, len(m.steps))
	defer runSpan.End()

	logger := m.logger.With(slog.String("run_id", runID))
	logger.InfoContext(ctx, "run started", slog.Int("steps", len(m.steps)))
	m.hub.BroadcastUpdate(EventRunStatus, "", string(domain.RunStatusRunning),
		map[string]string{"run_id": runID})

	for _, step := range m.steps {
		select {
		case <-ctx.Done():
			err := apperrors.NewAppError(apperrors.ErrTypeTransform, "run cancelled", ctx.Err()).
				WithStage(step.ID())
			m.finish(ctx, state, domain.RunStatusFailed, err)
			return state.Result(), err
		default:
		}

		stepState := state.Step(step.ID())
		stepState.Start()
		m.hub.BroadcastUpdate(EventStepProgress, step.ID(), string(StepStatusActive), nil)

		stepCtx, stepSpan := m.tracer.TraceStep(ctx, runID, step.ID())
		err := step.Execute(stepCtx, state)
		m.tracer.RecordStepCompletion(stepSpan, stepState.Duration(), err)
		stepSpan.End()
		m.metrics.RecordStage(ctx, step.ID(), stepState.Duration().Seconds())

		if err != nil {
			stepState.Fail(err)
			m.hub.BroadcastUpdate(EventStepProgress, step.ID(), string(StepStatusFailed), nil)
			logger.ErrorContext(ctx, "step failed",
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
			m.finish(ctx, state, domain.RunStatusFailed, err)
			return state.Result(), err
		}

		m.hub.BroadcastUpdate(EventStepProgress, step.ID(), string(StepStatusCompleted), nil)
		logger.InfoContext(ctx, "step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", stepState.Duration()))
	}

	status := domain.RunStatusSucceeded
	if report := state.Report(); report != nil {
		for _, res := range report.Results {
			m.metrics.RecordViolations(ctx, res.Rule, res.Count)
		}
		if report.HasBlocking() {
			status = domain.RunStatusViolations
		}
	}
	m.finish(ctx, state, status, nil)

	for target, rows := range state.Dimensional().RowCounts() {
		m.metrics.RecordRows(ctx, target, rows)
	}

	return state.Result(), nil
}

// Run returns the run log for a known run id.
func (m *Manager) Run(id string) (domain.RunResult, error) {
	m.mu.RLock()
	state, ok := m.runs[id]
	m.mu.RUnlock()
	if !ok {
		return domain.RunResult{}, apperrors.NewNotFoundError("run " + id)
	}
	return state.Result(), nil
}

// Runs returns the run logs of every known run, newest first.
func (m *Manager) Runs() []domain.RunResult {
	m.mu.RLock()
	results := make([]domain.RunResult, 0, len(m.runs))
	for _, state := range m.runs {
		results = append(results, state.Result())
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})
	return results
}

// Layers returns the staged data layers of a known run, for on-demand
// quality checks outside the run itself.
func (m *Manager) Layers(id string) (domain.ConformedLayer, domain.DimensionalLayer, error) {
	m.mu.RLock()
	state, ok := m.runs[id]
	m.mu.RUnlock()
	if !ok {
		return domain.ConformedLayer{}, domain.DimensionalLayer{}, apperrors.NewNotFoundError("run " + id)
	}
	return state.Conformed(), state.Dimensional(), nil
}

// Latest returns the id of the most recently started run, empty when no
// run has happened yet.
func (m *Manager) Latest() string {
	var latest string
	var latestStart time.Time
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, state := range m.runs {
		if result := state.Result(); latest == "" || result.StartedAt.After(latestStart) {
			latest = id
			latestStart = result.StartedAt
		}
	}
	return latest
}

// Active returns the id of the in-flight run, empty when idle.
func (m *Manager) Active() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

func (m *Manager) acquire(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID != "" {
		return apperrors.NewConflictError("a run is already in progress: " + m.activeID)
	}
	m.activeID = runID
	return nil
}

func (m *Manager) release() {
	m.mu.Lock()
	m.activeID = ""
	m.mu.Unlock()
}

func (m *Manager) finish(ctx context.Context, state *State, status domain.RunStatus, err error) {
	state.Finish(status, err)
	m.tracer.RecordRunCompletion(trace.SpanFromContext(ctx), status, state.Result().Duration())
	m.metrics.RecordRun(ctx, string(status))
	m.hub.BroadcastUpdate(EventRunComplete, "", string(status),
		map[string]string{"run_id": state.ID()})

	logger := m.logger.With(slog.String("run_id", state.ID()))
	if err != nil {
		logger.ErrorContext(ctx, "run failed",
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
			slog.Duration("duration", state.Result().Duration()))
		return
	}
	logger.InfoContext(ctx, "run finished",
		slog.String("status", string(status)),
		slog.Duration("duration", state.Result().Duration()))
}
