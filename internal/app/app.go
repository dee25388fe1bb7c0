// Package app wires the pipeline components into the operational HTTP
// server: configuration, logging, telemetry, the run manager, and the
// route tree.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"dwcli/internal/assembly"
	"dwcli/internal/config"
	"dwcli/internal/conform"
	"dwcli/internal/infrastructure"
	"dwcli/internal/operations"
	"dwcli/internal/quality"
	"dwcli/internal/source"
	"dwcli/internal/store"
	handlers "dwcli/internal/transport/http"
	ws "dwcli/internal/websocket"
)

// Application is the assembled server: every component built once, wired
// through constructor injection.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	OTel      *infrastructure.OTelProviders
	Hub       *ws.Hub
	Manager   *operations.Manager
	Warehouse *store.Warehouse
	Router    chi.Router
	Server    *http.Server
}

// NewApplication loads configuration and builds the full component graph.
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	otel, err := infrastructure.InitializeOTel(context.Background(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	hub := ws.NewHub(logger)

	manager, warehouse, engine, err := BuildPipeline(cfg, logger, otel.Metrics, hub)
	if err != nil {
		return nil, err
	}

	router := handlers.NewRouter(cfg.Server, handlers.RouterDeps{
		Manager:   manager,
		Engine:    engine,
		Warehouse: warehouse,
		Hub:       hub,
		Metrics:   otel.PrometheusHTTP,
		Logger:    logger,
	})

	return &Application{
		Config:    cfg,
		Logger:    logger,
		OTel:      otel,
		Hub:       hub,
		Manager:   manager,
		Warehouse: warehouse,
		Router:    router,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}, nil
}

// BuildPipeline constructs the run manager and its collaborators from
// configuration. hub may be nil for headless (CLI) use.
func BuildPipeline(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics, hub operations.ProgressHub) (*operations.Manager, *store.Warehouse, *quality.Engine, error) {
	provider, err := source.NewProvider(cfg.Sources)
	if err != nil {
		return nil, nil, nil, err
	}

	vocabs := conform.DefaultVocabularies()
	if cfg.Sources.VocabFile != "" {
		vocabs, err = conform.LoadVocabularies(cfg.Sources.VocabFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load vocabularies: %w", err)
		}
	}

	rules, err := quality.DefaultRules(cfg.Quality, vocabs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build quality rules: %w", err)
	}
	engine := quality.NewEngine(logger, rules)

	warehouse := store.NewWarehouse(cfg.Warehouse, logger)

	manager := operations.NewManager(logger, hub, metrics,
		operations.NewExtractStep(provider, logger),
		operations.NewConformStep(conform.NewConformer(logger, vocabs), logger),
		operations.NewAssembleStep(assembly.NewAssembler(logger)),
		operations.NewValidateStep(engine),
		operations.NewCommitStep(warehouse),
	)

	return manager, warehouse, engine, nil
}

// Run starts the server and blocks until shutdown.
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.Hub.Start()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("warehouse", a.Warehouse.Dir()))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	return a.Stop()
}

// Stop gracefully shuts the server, hub, and telemetry down.
func (a *Application) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	a.Hub.Stop()
	if err := a.OTel.Shutdown(ctx); err != nil {
		a.Logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}
	if err := infrastructure.CloseLogger(); err != nil {
		return err
	}
	a.Logger.Info("server stopped")
	return nil
}
