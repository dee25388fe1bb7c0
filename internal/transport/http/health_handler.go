package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "dwcli/internal/errors"
	"dwcli/internal/store"
)

// HealthHandler reports service liveness and the committed warehouse
// generation.
type HealthHandler struct {
	warehouse *store.Warehouse
	active    func() string
	logger    *slog.Logger
}

// NewHealthHandler creates a health handler. active reports the id of
// the in-flight run, empty when idle.
func NewHealthHandler(warehouse *store.Warehouse, active func() string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if active == nil {
		active = func() string { return "" }
	}
	return &HealthHandler{
		warehouse: warehouse,
		active:    active,
		logger:    logger.With(slog.String("handler", "health")),
	}
}

// Routes returns the health route tree.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.Health)
	r.Get("/warehouse", h.Warehouse)

	return r
}

// Health reports service status and the current warehouse generation.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	manifest, err := h.warehouse.Current()
	status := map[string]interface{}{
		"status":     "ok",
		"active_run": h.active(),
	}
	if err != nil {
		status["warehouse"] = "unreadable"
	} else if manifest != nil {
		status["warehouse"] = manifest
	}
	render.JSON(w, r, status)
}

// Warehouse returns the manifest of the committed generation.
func (h *HealthHandler) Warehouse(w http.ResponseWriter, r *http.Request) {
	manifest, err := h.warehouse.Current()
	if err != nil {
		render.Render(w, r, apperrors.ToAPIError(err))
		return
	}
	if manifest == nil {
		render.Render(w, r, apperrors.ErrNoWarehouse)
		return
	}
	render.JSON(w, r, manifest)
}
