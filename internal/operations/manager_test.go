package operations

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"dwcli/internal/assembly"
	"dwcli/internal/config"
	"dwcli/internal/conform"
	apperrors "dwcli/internal/errors"
	"dwcli/internal/quality"
	"dwcli/internal/store"
	"dwcli/pkg/contracts/domain"
)

type fakeProvider struct {
	data map[domain.Entity][]domain.RawRecord
	errs map[domain.Entity]error
}

func (p *fakeProvider) ReadAll(_ context.Context, entity domain.Entity) ([]domain.RawRecord, error) {
	if err := p.errs[entity]; err != nil {
		return nil, err
	}
	return p.data[entity], nil
}

func record(entity domain.Entity, seq int, fields map[string]any) domain.RawRecord {
	return domain.RawRecord{Entity: entity, Seq: seq, Fields: fields}
}

func sourceData() map[domain.Entity][]domain.RawRecord {
	return map[domain.Entity][]domain.RawRecord{
		domain.EntityCRMCustomers: {
			record(domain.EntityCRMCustomers, 0, map[string]any{
				"customer_id": "AW1", "first_name": "Jon", "last_name": "Yang",
				"marital_status": "M", "gender": "M", "create_date": "2024-01-15",
			}),
		},
		domain.EntityCRMProducts: {
			record(domain.EntityCRMProducts, 0, map[string]any{
				"product_id": "210", "product_key": "CO-RF-FR-R92B-58",
				"product_name": "HL Road Frame", "cost": "1059",
				"product_line": "R", "start_date": "2021-01-01",
			}),
		},
		domain.EntityCRMSales: {
			record(domain.EntityCRMSales, 0, map[string]any{
				"order_number": "SO1", "product_key": "FR-R92B-58", "customer_id": "AW1",
				"order_date": "20210301", "ship_date": "20210308", "due_date": "20210313",
				"quantity": "2", "unit_price": "1200", "line_amount": "2400",
			}),
		},
		domain.EntityERPCustomers: {
			record(domain.EntityERPCustomers, 0, map[string]any{
				"customer_id": "NASAW1", "birth_date": "1980-05-02", "gender": "Male",
			}),
		},
		domain.EntityERPLocations: {
			record(domain.EntityERPLocations, 0, map[string]any{
				"customer_id": "AW-1", "country": "DE",
			}),
		},
		domain.EntityERPCategories: {
			record(domain.EntityERPCategories, 0, map[string]any{
				"category_id": "CO_RF", "category": "Components",
				"subcategory": "Road Frames", "maintenance": "Yes",
			}),
		},
	}
}

type recordingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHub) BroadcastUpdate(eventType, step, status string, _ interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType+"/"+step+"/"+status)
}

func (h *recordingHub) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func newTestManager(t *testing.T, provider *fakeProvider, hub ProgressHub) (*Manager, *store.Warehouse) {
	t.Helper()

	logger := slog.Default()
	warehouse := store.NewWarehouse(config.WarehouseConfig{Dir: t.TempDir()}, logger)

	qcfg := config.QualityConfig{
		DateMin: "1990-01-01", DateMax: "2050-12-31",
		MaxQuantity: 1000, MaxUnitPrice: 100000,
		ReferentialSeverity: "advisory", OrphanSeverity: "advisory",
	}
	rules, err := quality.DefaultRules(qcfg, nil)
	require.NoError(t, err)

	manager := NewManager(logger, hub, nil,
		NewExtractStep(provider, logger),
		NewConformStep(conform.NewConformer(logger, nil), logger),
		NewAssembleStep(assembly.NewAssembler(logger)),
		NewValidateStep(quality.NewEngine(logger, rules)),
		NewCommitStep(warehouse),
	)
	return manager, warehouse
}

func TestManager_SuccessfulRun(t *testing.T) {
	provider := &fakeProvider{data: sourceData()}
	manager, warehouse := newTestManager(t, provider, nil)

	result, err := manager.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusSucceeded, result.Status)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.FinishedAt.IsZero())
	require.Len(t, result.Stages, 5)
	for _, stage := range result.Stages {
		assert.Empty(t, stage.Error, stage.ID)
	}
	assert.Equal(t, map[string]int{
		domain.TargetCustomerDim: 1,
		domain.TargetProductDim:  1,
		domain.TargetSalesFact:   1,
	}, result.RowsPerTarget)
	require.NotNil(t, result.Report)
	assert.False(t, result.Report.HasBlocking())

	current, err := warehouse.Current()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, result.ID, current.RunID)
}

func TestManager_SourceFailureLeavesLastKnownGood(t *testing.T) {
	provider := &fakeProvider{data: sourceData()}
	manager, warehouse := newTestManager(t, provider, nil)

	first, err := manager.Execute(context.Background())
	require.NoError(t, err)

	provider.errs = map[domain.Entity]error{
		domain.EntityCRMSales: apperrors.NewSourceReadError("crm_sales", assert.AnError),
	}
	second, err := manager.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceRead))
	assert.Equal(t, domain.RunStatusFailed, second.Status)
	assert.Nil(t, second.RowsPerTarget)

	current, err := warehouse.Current()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, first.ID, current.RunID, "failed run never touches the committed generation")
}

func TestManager_BlockingViolationStillCommits(t *testing.T) {
	data := sourceData()
	// A negative quantity trips the blocking numeric bounds rule.
	data[domain.EntityCRMSales] = append(data[domain.EntityCRMSales],
		record(domain.EntityCRMSales, 1, map[string]any{
			"order_number": "SO2", "product_key": "FR-R92B-58", "customer_id": "AW1",
			"quantity": "-1", "unit_price": "10", "line_amount": "10",
		}))
	manager, warehouse := newTestManager(t, &fakeProvider{data: data}, nil)

	result, err := manager.Execute(context.Background())
	require.NoError(t, err, "violations are a status, not an execution error")

	assert.Equal(t, domain.RunStatusViolations, result.Status)
	require.NotNil(t, result.Report)
	assert.True(t, result.Report.HasBlocking())

	current, err := warehouse.Current()
	require.NoError(t, err)
	require.NotNil(t, current, "the run completes and replaces the warehouse")
	assert.Equal(t, result.ID, current.RunID)
}

type blockingStep struct {
	started     chan struct{}
	release     chan struct{}
	startedOnce sync.Once
}

func (s *blockingStep) ID() string   { return "block" }
func (s *blockingStep) Name() string { return "Block" }

func (s *blockingStep) Execute(_ context.Context, state *State) error {
	s.startedOnce.Do(func() { close(s.started) })
	<-s.release
	state.Step("block").Complete(0)
	return nil
}

func TestManager_RejectsConcurrentRun(t *testing.T) {
	step := &blockingStep{started: make(chan struct{}), release: make(chan struct{})}
	manager := NewManager(slog.Default(), nil, nil, step)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := manager.Execute(context.Background())
		assert.NoError(t, err)
	}()

	<-step.started
	assert.NotEmpty(t, manager.Active())

	_, err := manager.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConflict))

	close(step.release)
	<-done

	assert.Empty(t, manager.Active())
	_, err = manager.Execute(context.Background())
	assert.NoError(t, err, "lock released after the run finishes")
}

func TestManager_RunLookup(t *testing.T) {
	manager, _ := newTestManager(t, &fakeProvider{data: sourceData()}, nil)

	first, err := manager.Execute(context.Background())
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := manager.Execute(context.Background())
	require.NoError(t, err)

	got, err := manager.Run(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = manager.Run("nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	runs := manager.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")
}

func TestManager_BroadcastsProgress(t *testing.T) {
	hub := &recordingHub{}
	manager, _ := newTestManager(t, &fakeProvider{data: sourceData()}, hub)

	_, err := manager.Execute(context.Background())
	require.NoError(t, err)

	events := hub.Events()
	assert.Contains(t, events, EventRunStatus+"//"+string(domain.RunStatusRunning))
	assert.Contains(t, events, EventStepProgress+"/extract/"+string(StepStatusActive))
	assert.Contains(t, events, EventStepProgress+"/commit/"+string(StepStatusCompleted))
	assert.Contains(t, events, EventRunComplete+"//"+string(domain.RunStatusSucceeded))
}

func TestManager_CancelledContextFailsRun(t *testing.T) {
	manager, warehouse := newTestManager(t, &fakeProvider{data: sourceData()}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := manager.Execute(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.RunStatusFailed, result.Status)

	current, err := warehouse.Current()
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestManager_TracesRunAndSteps(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	provider := &fakeProvider{data: sourceData()}
	manager, _ := newTestManager(t, provider, nil)

	_, err := manager.Execute(context.Background())
	require.NoError(t, err)

	spans := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range recorder.Ended() {
		spans[s.Name()] = s
	}

	run, ok := spans["pipeline.run"]
	require.True(t, ok, "run span missing")
	assert.Equal(t, codes.Ok, run.Status().Code)

	for _, id := range []string{StepIDExtract, StepIDConform, StepIDAssemble, StepIDValidate, StepIDCommit} {
		step, ok := spans["pipeline.step."+id]
		require.True(t, ok, "step span missing: %s", id)
		assert.Equal(t, run.SpanContext().TraceID(), step.SpanContext().TraceID())
		assert.Equal(t, run.SpanContext().SpanID(), step.Parent().SpanID())
		assert.Equal(t, codes.Ok, step.Status().Code)
	}
}

func TestManager_TracesFailedStep(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	provider := &fakeProvider{
		data: sourceData(),
		errs: map[domain.Entity]error{
			domain.EntityCRMSales: apperrors.NewSourceReadError("crm_sales", assert.AnError),
		},
	}
	manager, _ := newTestManager(t, provider, nil)

	_, err := manager.Execute(context.Background())
	require.Error(t, err)

	spans := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range recorder.Ended() {
		spans[s.Name()] = s
	}

	step, ok := spans["pipeline.step."+StepIDExtract]
	require.True(t, ok, "extract span missing")
	assert.Equal(t, codes.Error, step.Status().Code)

	run, ok := spans["pipeline.run"]
	require.True(t, ok, "run span missing")
	assert.Equal(t, codes.Error, run.Status().Code)
}
