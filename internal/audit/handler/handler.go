// Package handler exposes read access to the action and session logs.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"maternidad/internal/audit"
	"maternidad/internal/platform/middleware"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/platform/httputil"
	"maternidad/pkg/requestcontext"
)

type Handler struct {
	recorder *audit.Recorder
	logger   *slog.Logger
}

func New(recorder *audit.Recorder, logger *slog.Logger) *Handler {
	return &Handler{recorder: recorder, logger: logger}
}

// Register mounts the log listing endpoints. The trails are admin-only.
func (h *Handler) Register(r chi.Router) {
	r.Route("/historial", func(r chi.Router) {
		r.Use(middleware.RequireRole(domain.RoleAdmin))
		r.Get("/", h.HandleListActions)
		r.Get("/sesiones", h.HandleListSessions)
	})
}

// HandleListActions handles GET /historial. Optional filters: tipo_objeto,
// objeto_id, usuario, limit.
func (h *Handler) HandleListActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.recorder.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list audit entries failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// HandleListSessions handles GET /historial/sesiones.
func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.recorder.ListSessions(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list session entries failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.SessionEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func parseFilter(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	var filter audit.Filter

	filter.SubjectType = audit.SubjectType(q.Get("tipo_objeto"))
	if raw := q.Get("objeto_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return audit.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "objeto_id must be a positive integer")
		}
		filter.SubjectID = id
	}
	if raw := q.Get("usuario"); raw != "" {
		userID, err := domain.ParseUserID(raw)
		if err != nil {
			return audit.Filter{}, err
		}
		filter.Actor = &userID
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		return audit.Filter{}, err
	}
	filter.Limit = limit
	return filter, nil
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
	}
	return limit, nil
}
