package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"dwcli/internal/config"
	"dwcli/internal/middleware"
	"dwcli/internal/operations"
	"dwcli/internal/quality"
	"dwcli/internal/store"
	"dwcli/internal/websocket"
)

// RouterDeps carries everything the HTTP surface serves.
type RouterDeps struct {
	Manager   *operations.Manager
	Engine    *quality.Engine
	Warehouse *store.Warehouse
	Hub       *websocket.Hub
	// Metrics serves the Prometheus exposition endpoint; nil disables it.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter assembles the full route tree with the middleware chain.
func NewRouter(cfg config.ServerConfig, deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Mount("/pipeline", NewPipelineHandler(deps.Manager, logger).Routes())
		api.Mount("/quality", NewQualityHandler(deps.Engine, deps.Manager, logger).Routes())
		api.Mount("/health", NewHealthHandler(deps.Warehouse, deps.Manager.Active, logger).Routes())
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	if deps.Hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWS(deps.Hub, w, req)
		})
	}

	return r
}
