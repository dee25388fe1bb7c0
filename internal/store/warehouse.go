// Package store persists the dimensional layer as CSV tables under a
// warehouse directory. Every run writes into its own staging directory
// and replaces the committed generation with a directory swap, so readers
// only ever observe a complete generation.
package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dwcli/internal/config"
	apperrors "dwcli/internal/errors"
	"dwcli/pkg/contracts/domain"
)

const (
	currentDir  = "current"
	previousDir = "previous"
	stagingPref = "staging-"

	manifestFile = "manifest.json"
)

// Manifest describes one committed warehouse generation.
type Manifest struct {
	RunID         string         `json:"run_id"`
	CommittedAt   time.Time      `json:"committed_at"`
	RowsPerTarget map[string]int `json:"rows_per_target"`
}

// Warehouse is the dimensional target store. It is single-writer: the
// pipeline's run lock serializes Stage/Commit sequences.
type Warehouse struct {
	dir    string
	logger *slog.Logger
}

// NewWarehouse creates a warehouse rooted at the configured directory.
func NewWarehouse(cfg config.WarehouseConfig, logger *slog.Logger) *Warehouse {
	if logger == nil {
		logger = slog.Default()
	}
	return &Warehouse{dir: cfg.Dir, logger: logger}
}

// Dir returns the warehouse root directory.
func (w *Warehouse) Dir() string {
	return w.dir
}

// Stage writes the full dimensional layer into a fresh staging directory
// for the given run. Nothing under current/ is touched until Commit.
func (w *Warehouse) Stage(runID string, layer domain.DimensionalLayer) (*Staging, error) {
	dir := filepath.Join(w.dir, stagingPref+runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("create staging directory", err)
	}

	staging := &Staging{warehouse: w, runID: runID, dir: dir}

	if err := writeTable(dir, domain.TargetCustomerDim, customerDimHeader, encodeCustomerDims(layer.Customers)); err != nil {
		staging.Discard()
		return nil, err
	}
	if err := writeTable(dir, domain.TargetProductDim, productDimHeader, encodeProductDims(layer.Products)); err != nil {
		staging.Discard()
		return nil, err
	}
	if err := writeTable(dir, domain.TargetSalesFact, salesFactHeader, encodeSalesFacts(layer.Sales)); err != nil {
		staging.Discard()
		return nil, err
	}

	manifest := Manifest{
		RunID:         runID,
		CommittedAt:   time.Now().UTC(),
		RowsPerTarget: layer.RowCounts(),
	}
	if err := writeManifest(filepath.Join(dir, manifestFile), manifest); err != nil {
		staging.Discard()
		return nil, err
	}

	w.logger.Info("dimensional layer staged",
		slog.String("run_id", runID),
		slog.String("dir", dir),
		slog.Int("customers", len(layer.Customers)),
		slog.Int("products", len(layer.Products)),
		slog.Int("sales", len(layer.Sales)))

	return staging, nil
}

// Current returns the manifest of the committed generation, or nil when
// no run has ever committed.
func (w *Warehouse) Current() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(w.dir, currentDir, manifestFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("read warehouse manifest", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.NewStorageError("decode warehouse manifest", err)
	}
	return &m, nil
}

// TablePath returns the committed CSV path for a warehouse target.
func (w *Warehouse) TablePath(target string) string {
	return filepath.Join(w.dir, currentDir, target+".csv")
}

// Staging is one run's uncommitted warehouse generation. Exactly one of
// Commit or Discard must be called.
type Staging struct {
	warehouse *Warehouse
	runID     string
	dir       string
}

// Dir returns the staging directory.
func (s *Staging) Dir() string {
	return s.dir
}

// Commit atomically replaces the committed generation with this staging
// directory. The superseded generation is kept under previous/ until the
// next commit. On any error the committed generation is left intact.
func (s *Staging) Commit() error {
	current := filepath.Join(s.warehouse.dir, currentDir)
	previous := filepath.Join(s.warehouse.dir, previousDir)

	if _, err := os.Stat(current); err == nil {
		if err := os.RemoveAll(previous); err != nil {
			return apperrors.NewStorageError("clear previous generation", err)
		}
		if err := os.Rename(current, previous); err != nil {
			return apperrors.NewStorageError("retire committed generation", err)
		}
	}

	if err := os.Rename(s.dir, current); err != nil {
		// Swap back so the old generation stays visible.
		if _, statErr := os.Stat(previous); statErr == nil {
			_ = os.Rename(previous, current)
		}
		return apperrors.NewStorageError("promote staged generation", err)
	}

	s.warehouse.logger.Info("warehouse generation committed",
		slog.String("run_id", s.runID),
		slog.String("dir", current))
	return nil
}

// Discard removes the staging directory, leaving the committed
// generation untouched.
func (s *Staging) Discard() {
	if err := os.RemoveAll(s.dir); err != nil {
		s.warehouse.logger.Warn("failed to remove staging directory",
			slog.String("dir", s.dir),
			slog.String("error", err.Error()))
	}
}

func writeManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("encode warehouse manifest", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewStorageError("write warehouse manifest", err)
	}
	return nil
}
