package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"dwcli/internal/config"
	apperrors "dwcli/internal/errors"
	"dwcli/pkg/contracts/domain"
)

// CSVProvider reads raw extracts from one CSV file per entity.
type CSVProvider struct {
	cfg config.SourcesConfig
}

// NewCSVProvider creates a CSV-backed raw record provider.
func NewCSVProvider(cfg config.SourcesConfig) *CSVProvider {
	return &CSVProvider{cfg: cfg}
}

// ReadAll reads every record of the entity's extract file.
func (p *CSVProvider) ReadAll(ctx context.Context, entity domain.Entity) ([]domain.RawRecord, error) {
	path := p.cfg.SourcePath(string(entity))

	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewSourceReadError(string(entity), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows surface as nulls, not read errors
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewSourceReadError(string(entity), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewSourceReadError(string(entity), fmt.Errorf("extract %s has no header row", path))
	}

	records, err := buildRecords(entity, rows[0], rows[1:])
	if err != nil {
		return nil, apperrors.NewSourceReadError(string(entity), err)
	}

	slog.DebugContext(ctx, "read source extract",
		slog.String("entity", string(entity)),
		slog.String("path", path),
		slog.Int("records", len(records)))
	return records, nil
}
