package operations

import (
	"context"
	"log/slog"

	"dwcli/internal/assembly"
	"dwcli/internal/conform"
	"dwcli/internal/quality"
	"dwcli/internal/source"
	"dwcli/internal/store"
	"dwcli/pkg/contracts/domain"
)

// Step identifiers, in pipeline order.
const (
	StepIDExtract  = "extract"
	StepIDConform  = "conform"
	StepIDAssemble = "assemble"
	StepIDValidate = "validate"
	StepIDCommit   = "commit"
)

// ExtractStep reads every source entity through the configured provider
// into the run state. Any read failure aborts the run.
type ExtractStep struct {
	provider source.Provider
	logger   *slog.Logger
}

// NewExtractStep creates the extract step.
func NewExtractStep(provider source.Provider, logger *slog.Logger) *ExtractStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStep{provider: provider, logger: logger}
}

func (s *ExtractStep) ID() string   { return StepIDExtract }
func (s *ExtractStep) Name() string { return "Extract sources" }

func (s *ExtractStep) Execute(ctx context.Context, state *State) error {
	total := 0
	for _, entity := range domain.AllEntities {
		records, err := s.provider.ReadAll(ctx, entity)
		if err != nil {
			return err
		}
		state.SetRaw(entity, records)
		total += len(records)

		s.logger.InfoContext(ctx, "entity extracted",
			slog.String("entity", string(entity)),
			slog.Int("records", len(records)))
	}
	state.Step(StepIDExtract).Complete(total)
	return nil
}

// ConformStep turns the raw extracts into the typed conformed layer.
type ConformStep struct {
	conformer *conform.Conformer
	logger    *slog.Logger
}

// NewConformStep creates the conform step.
func NewConformStep(conformer *conform.Conformer, logger *slog.Logger) *ConformStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConformStep{conformer: conformer, logger: logger}
}

func (s *ConformStep) ID() string   { return StepIDConform }
func (s *ConformStep) Name() string { return "Conform entities" }

func (s *ConformStep) Execute(ctx context.Context, state *State) error {
	var layer domain.ConformedLayer
	stats := make(map[domain.Entity]conform.Stats, len(domain.AllEntities))

	layer.Customers, stats[domain.EntityCRMCustomers] = s.conformer.Customers(state.Raw(domain.EntityCRMCustomers))
	layer.Products, stats[domain.EntityCRMProducts] = s.conformer.Products(state.Raw(domain.EntityCRMProducts))
	layer.Sales, stats[domain.EntityCRMSales] = s.conformer.Sales(state.Raw(domain.EntityCRMSales))
	layer.Demographics, stats[domain.EntityERPCustomers] = s.conformer.Demographics(state.Raw(domain.EntityERPCustomers))
	layer.Locations, stats[domain.EntityERPLocations] = s.conformer.Locations(state.Raw(domain.EntityERPLocations))
	layer.Categories, stats[domain.EntityERPCategories] = s.conformer.Categories(state.Raw(domain.EntityERPCategories))

	total := 0
	for entity, st := range stats {
		total += st.Output
		if st.Dropped > 0 {
			s.logger.WarnContext(ctx, "records dropped during conformance",
				slog.String("entity", string(entity)),
				slog.Int("input", st.Input),
				slog.Int("dropped", st.Dropped))
		}
	}

	state.SetConformed(layer)
	state.Step(StepIDConform).Complete(total)
	return nil
}

// AssembleStep builds the star-schema layer from the conformed layer.
type AssembleStep struct {
	assembler *assembly.Assembler
}

// NewAssembleStep creates the assemble step.
func NewAssembleStep(assembler *assembly.Assembler) *AssembleStep {
	return &AssembleStep{assembler: assembler}
}

func (s *AssembleStep) ID() string   { return StepIDAssemble }
func (s *AssembleStep) Name() string { return "Assemble star schema" }

func (s *AssembleStep) Execute(ctx context.Context, state *State) error {
	layer, err := s.assembler.Assemble(ctx, state.Conformed())
	if err != nil {
		return err
	}
	state.SetDimensional(layer)

	total := 0
	for _, rows := range layer.RowCounts() {
		total += rows
	}
	state.Step(StepIDAssemble).Complete(total)
	return nil
}

// ValidateStep runs the quality engine over both layers and attaches the
// report to the run. Violations never fail this step; blocking rules
// change the terminal run status instead.
type ValidateStep struct {
	engine *quality.Engine
}

// NewValidateStep creates the validate step.
func NewValidateStep(engine *quality.Engine) *ValidateStep {
	return &ValidateStep{engine: engine}
}

func (s *ValidateStep) ID() string   { return StepIDValidate }
func (s *ValidateStep) Name() string { return "Validate quality rules" }

func (s *ValidateStep) Execute(ctx context.Context, state *State) error {
	report := s.engine.Run(ctx, domain.ScopeAll, quality.Dataset{
		Conformed:   state.Conformed(),
		Dimensional: state.Dimensional(),
	})
	report.RunID = state.ID()
	state.SetReport(&report)
	state.Step(StepIDValidate).Complete(len(report.Results))
	return nil
}

// CommitStep stages the dimensional layer and atomically replaces the
// committed warehouse generation. A failed commit discards the staging
// directory, leaving the previous generation visible.
type CommitStep struct {
	warehouse *store.Warehouse
}

// NewCommitStep creates the commit step.
func NewCommitStep(warehouse *store.Warehouse) *CommitStep {
	return &CommitStep{warehouse: warehouse}
}

func (s *CommitStep) ID() string   { return StepIDCommit }
func (s *CommitStep) Name() string { return "Commit warehouse" }

func (s *CommitStep) Execute(ctx context.Context, state *State) error {
	layer := state.Dimensional()

	staging, err := s.warehouse.Stage(state.ID(), layer)
	if err != nil {
		return err
	}
	if err := staging.Commit(); err != nil {
		staging.Discard()
		return err
	}

	total := 0
	for _, rows := range layer.RowCounts() {
		total += rows
	}
	state.Step(StepIDCommit).Complete(total)
	return nil
}
