// Command server runs the operational HTTP server: run triggering and
// inspection, on-demand quality checks, health, Prometheus metrics, and
// websocket progress streaming.
package main

import (
	"flag"
	"log/slog"
	"os"

	"dwcli/internal/app"
)

func main() {
	configFile := flag.String("config", "", "configuration file (defaults to dwcli.yaml when present)")
	flag.Parse()

	application, err := app.NewApplication(*configFile)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
