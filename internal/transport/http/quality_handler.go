package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "dwcli/internal/errors"
	"dwcli/internal/quality"
	"dwcli/pkg/contracts/domain"
)

// LayerSource exposes the staged data layers of past runs for on-demand
// quality checks.
type LayerSource interface {
	Layers(id string) (domain.ConformedLayer, domain.DimensionalLayer, error)
	Latest() string
}

// QualityHandler re-runs quality checks against a stored run.
type QualityHandler struct {
	engine *quality.Engine
	layers LayerSource
	logger *slog.Logger
}

// NewQualityHandler creates a quality handler.
func NewQualityHandler(engine *quality.Engine, layers LayerSource, logger *slog.Logger) *QualityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityHandler{
		engine: engine,
		layers: layers,
		logger: logger.With(slog.String("handler", "quality")),
	}
}

// Routes returns the quality route tree.
func (h *QualityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/checks", h.RunChecks)
	r.Get("/rules", h.ListRules)

	return r
}

// CheckRequest selects what to validate. RunID defaults to the latest
// run; Scope defaults to all rules.
type CheckRequest struct {
	RunID string `json:"run_id"`
	Scope string `json:"scope"`
}

// RunChecks evaluates the rule set against a stored run's layers and
// returns the report without changing any run status.
func (h *QualityHandler) RunChecks(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if r.ContentLength > 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Render(w, r, apperrors.ErrInvalidRequest)
			return
		}
	}

	if req.RunID == "" {
		req.RunID = h.layers.Latest()
	}
	scope := domain.Scope(req.Scope)
	if scope == "" {
		scope = domain.ScopeAll
	}
	if scope != domain.ScopeAll && scope != domain.ScopeConformed && scope != domain.ScopeDimensional {
		render.Render(w, r, apperrors.ErrInvalidRequest)
		return
	}

	conformed, dimensional, err := h.layers.Layers(req.RunID)
	if err != nil {
		render.Render(w, r, apperrors.ErrRunNotFound)
		return
	}

	report := h.engine.Run(r.Context(), scope, quality.Dataset{
		Conformed:   conformed,
		Dimensional: dimensional,
	})
	report.RunID = req.RunID

	h.logger.InfoContext(r.Context(), "on-demand quality check",
		slog.String("run_id", req.RunID),
		slog.String("scope", string(scope)),
		slog.Int("violated_rules", report.Violations()))

	render.JSON(w, r, report)
}

// ListRules describes the registered rule set.
func (h *QualityHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	type ruleInfo struct {
		Name     string          `json:"name"`
		Scope    domain.Scope    `json:"scope"`
		Severity domain.Severity `json:"severity"`
	}

	rules := h.engine.Rules()
	out := make([]ruleInfo, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleInfo{Name: rule.Name, Scope: rule.Scope, Severity: rule.Severity})
	}
	render.JSON(w, r, map[string]interface{}{"rules": out})
}
