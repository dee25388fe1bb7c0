// Package http is the operational HTTP surface of the pipeline: run
// triggering and inspection, on-demand quality checks, health, metrics,
// and progress streaming.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "dwcli/internal/errors"
	"dwcli/pkg/contracts/domain"
)

// RunService executes and exposes pipeline runs. The operations manager
// implements it.
type RunService interface {
	Execute(ctx context.Context) (domain.RunResult, error)
	Run(id string) (domain.RunResult, error)
	Runs() []domain.RunResult
	Active() string
}

// PipelineHandler handles pipeline run requests.
type PipelineHandler struct {
	service RunService
	logger  *slog.Logger
}

// NewPipelineHandler creates a pipeline handler.
func NewPipelineHandler(service RunService, logger *slog.Logger) *PipelineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "pipeline")),
	}
}

// Routes returns the pipeline route tree.
func (h *PipelineHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/run", h.TriggerRun)
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{id}", h.GetRun)

	return r
}

// TriggerRun executes one full batch run and returns its run log. A
// second trigger while a run is active gets a 409.
func (h *PipelineHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Execute(r.Context())
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeConflict) {
			render.Render(w, r, apperrors.ErrRunInProgress)
			return
		}
		h.logger.ErrorContext(r.Context(), "run failed",
			slog.String("run_id", result.ID),
			slog.String("error", err.Error()))
		// The run log still describes what happened before the failure.
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, result)
		return
	}

	render.JSON(w, r, result)
}

// ListRuns returns every known run, newest first.
func (h *PipelineHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"active": h.service.Active(),
		"runs":   h.service.Runs(),
	})
}

// GetRun returns the run log for one run id.
func (h *PipelineHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.service.Run(id)
	if err != nil {
		render.Render(w, r, apperrors.ErrRunNotFound)
		return
	}
	render.JSON(w, r, result)
}
