// Package handler exposes the REM report endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"maternidad/internal/platform/middleware"
	"maternidad/internal/report"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/platform/httputil"
	"maternidad/pkg/requestcontext"
)

// Service defines the report operation the handler depends on.
type Service interface {
	Compute(ctx context.Context, period report.Period, actor domain.Actor) (*report.Report, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the report endpoint, supervisory roles only.
func (h *Handler) Register(r chi.Router) {
	r.With(middleware.RequireRole(domain.RoleAdmin, domain.RoleSupervisor)).
		Get("/reportes/rem", h.HandleCompute)
}

// HandleCompute handles GET /reportes/rem?fecha_inicio=...&fecha_fin=...
func (h *Handler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := report.ParsePeriod(r.URL.Query().Get("fecha_inicio"), r.URL.Query().Get("fecha_fin"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rep, err := h.service.Compute(ctx, period, requestcontext.Actor(ctx))
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "report computation failed",
				"request_id", requestcontext.RequestID(ctx),
				"fecha_inicio", period.StartLabel,
				"fecha_fin", period.EndLabel,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}
