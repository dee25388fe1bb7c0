// Command pipeline runs one batch: extract, conform, assemble, validate,
// commit. It prints the run log and exits non-zero when the run failed
// or a blocking quality rule was violated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"dwcli/internal/app"
	"dwcli/internal/config"
	"dwcli/internal/infrastructure"
	"dwcli/pkg/contracts/domain"
)

func main() {
	configFile := flag.String("config", "", "configuration file (defaults to dwcli.yaml when present)")
	sourceDir := flag.String("in", "", "source extract directory (overrides configuration)")
	warehouseDir := flag.String("out", "", "warehouse directory (overrides configuration)")
	strict := flag.Bool("strict", false, "exit non-zero when any quality rule is violated, not only blocking ones")
	flag.Parse()

	os.Exit(run(*configFile, *sourceDir, *warehouseDir, *strict))
}

func run(configFile, sourceDir, warehouseDir string, strict bool) int {
	cfg, err := config.Load(configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	if sourceDir != "" {
		cfg.Sources.Dir = sourceDir
	}
	if warehouseDir != "" {
		cfg.Warehouse.Dir = warehouseDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		return 1
	}
	defer infrastructure.CloseLogger()

	manager, _, _, err := app.BuildPipeline(cfg, logger, nil, nil)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.RunTimeout)
	defer cancel()

	result, err := manager.Execute(ctx)
	printRunLog(result)

	if err != nil {
		return 1
	}
	switch {
	case result.Status == domain.RunStatusViolations:
		return 2
	case strict && result.Report != nil && result.Report.Violations() > 0:
		return 2
	}
	return 0
}

func printRunLog(result domain.RunResult) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode run log:", err)
		return
	}
	fmt.Println(string(out))
}
