package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"dwcli/internal/config"
	apperrors "dwcli/internal/errors"
	"dwcli/pkg/contracts/domain"
)

// ExcelProvider reads raw extracts from one .xlsx workbook per entity.
// The data is taken from the first sheet whose header row contains the
// entity's expected columns, so extraction jobs that add cover sheets
// keep working.
type ExcelProvider struct {
	cfg config.SourcesConfig
}

// NewExcelProvider creates an Excel-backed raw record provider.
func NewExcelProvider(cfg config.SourcesConfig) *ExcelProvider {
	return &ExcelProvider{cfg: cfg}
}

// ReadAll reads every record of the entity's extract workbook.
func (p *ExcelProvider) ReadAll(ctx context.Context, entity domain.Entity) ([]domain.RawRecord, error) {
	path := p.cfg.SourcePath(string(entity))

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewSourceReadError(string(entity), err)
	}
	defer f.Close()

	rows, sheet, err := p.findDataSheet(f, entity)
	if err != nil {
		return nil, apperrors.NewSourceReadError(string(entity), err)
	}

	records, err := buildRecords(entity, rows[0], rows[1:])
	if err != nil {
		return nil, apperrors.NewSourceReadError(string(entity), err)
	}

	slog.DebugContext(ctx, "read source extract",
		slog.String("entity", string(entity)),
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("records", len(records)))
	return records, nil
}

func (p *ExcelProvider) findDataSheet(f *excelize.File, entity domain.Entity) ([][]string, string, error) {
	expected, err := Columns(entity)
	if err != nil {
		return nil, "", err
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		if headerMatches(rows[0], expected) {
			return rows, name, nil
		}
	}
	return nil, "", fmt.Errorf("no sheet with columns %v found for %s", expected, entity)
}

func headerMatches(header, expected []string) bool {
	index := make(map[string]bool, len(header))
	for _, name := range header {
		index[normalizeHeader(name)] = true
	}
	for _, col := range expected {
		if !index[col] {
			return false
		}
	}
	return true
}
