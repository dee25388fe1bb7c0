// Package source reads raw extracted records from the upstream CRM and
// ERP extraction jobs. Providers return untyped field maps; all cleaning
// and typing happens downstream in the conformance stages.
package source

import (
	"context"
	"fmt"
	"strings"

	"dwcli/internal/config"
	apperrors "dwcli/internal/errors"
	"dwcli/pkg/contracts/domain"
)

// Provider reads every raw record for one source entity. Extracts are
// already materialized by the upstream extraction mechanism; a provider
// never reaches into the source systems themselves.
type Provider interface {
	ReadAll(ctx context.Context, entity domain.Entity) ([]domain.RawRecord, error)
}

// entityColumns is the expected column set per entity. A header missing
// any of these makes the extract malformed and fails the read.
var entityColumns = map[domain.Entity][]string{
	domain.EntityCRMCustomers: {
		"customer_id", "first_name", "last_name", "marital_status", "gender", "create_date",
	},
	domain.EntityCRMProducts: {
		"product_id", "product_key", "product_name", "cost", "product_line", "start_date",
	},
	domain.EntityCRMSales: {
		"order_number", "product_key", "customer_id",
		"order_date", "ship_date", "due_date",
		"quantity", "unit_price", "line_amount",
	},
	domain.EntityERPCustomers: {
		"customer_id", "birth_date", "gender",
	},
	domain.EntityERPLocations: {
		"customer_id", "country",
	},
	domain.EntityERPCategories: {
		"category_id", "category", "subcategory", "maintenance",
	},
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Columns returns the expected columns for the entity.
func Columns(entity domain.Entity) ([]string, error) {
	cols, ok := entityColumns[entity]
	if !ok {
		return nil, fmt.Errorf("unknown source entity: %s", entity)
	}
	return cols, nil
}

// NewProvider returns the provider matching the configured extract format.
func NewProvider(cfg config.SourcesConfig) (Provider, error) {
	switch cfg.Format {
	case "csv":
		return NewCSVProvider(cfg), nil
	case "xlsx":
		return NewExcelProvider(cfg), nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported source format: %s", cfg.Format), nil)
	}
}

// buildRecords converts a header row plus data rows into raw records,
// preserving input order in Seq. Header names are matched after trimming
// and case-folding; cell values are kept verbatim.
func buildRecords(entity domain.Entity, header []string, rows [][]string) ([]domain.RawRecord, error) {
	expected, err := Columns(entity)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[normalizeHeader(name)] = i
	}
	for _, col := range expected {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("extract for %s is missing column %q", entity, col)
		}
	}

	records := make([]domain.RawRecord, 0, len(rows))
	for seq, row := range rows {
		fields := make(map[string]any, len(expected))
		for _, col := range expected {
			i := index[col]
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				fields[col] = nil
				continue
			}
			fields[col] = row[i]
		}
		records = append(records, domain.RawRecord{
			Entity: entity,
			Seq:    seq,
			Fields: fields,
		})
	}
	return records, nil
}
