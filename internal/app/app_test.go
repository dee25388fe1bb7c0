package app

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwcli/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Sources:   config.SourcesConfig{Dir: t.TempDir(), Format: "csv"},
		Warehouse: config.WarehouseConfig{Dir: t.TempDir()},
		Quality: config.QualityConfig{
			DateMin: "1990-01-01", DateMax: "2050-12-31",
			MaxQuantity: 1000, MaxUnitPrice: 100000,
			ReferentialSeverity: "advisory", OrphanSeverity: "advisory",
		},
	}
}

func TestBuildPipeline(t *testing.T) {
	manager, warehouse, engine, err := BuildPipeline(testConfig(t), slog.Default(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, manager)
	assert.NotNil(t, warehouse)
	assert.NotNil(t, engine)
	assert.Empty(t, manager.Active())
}

func TestBuildPipeline_UnknownSourceFormat(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.Format = "parquet"

	_, _, _, err := BuildPipeline(cfg, slog.Default(), nil, nil)
	assert.Error(t, err)
}

func TestBuildPipeline_BadQualityWindow(t *testing.T) {
	cfg := testConfig(t)
	cfg.Quality.DateMin = "not-a-date"

	_, _, _, err := BuildPipeline(cfg, slog.Default(), nil, nil)
	assert.Error(t, err)
}
