// Package handler exposes the correction workflow endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"maternidad/internal/correction"
	"maternidad/internal/platform/middleware"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/platform/httputil"
	"maternidad/pkg/requestcontext"
)

// Service defines the correction operations the handler depends on.
type Service interface {
	Request(ctx context.Context, actor domain.Actor, target domain.DeliveryID, message string) (*correction.Request, error)
	Resolve(ctx context.Context, actor domain.Actor, id domain.CorrectionID) (*correction.Request, error)
	Get(ctx context.Context, id domain.CorrectionID) (*correction.Request, error)
	List(ctx context.Context) ([]correction.Request, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the correction endpoints. Resolution is a supervisory
// action; requesting is open to any authenticated role.
func (h *Handler) Register(r chi.Router) {
	r.Route("/correcciones", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleRequest)
		r.Get("/{correctionID}", h.HandleGet)
		r.With(middleware.RequireRole(domain.RoleAdmin, domain.RoleSupervisor)).
			Post("/{correctionID}/resolver", h.HandleResolve)
	})
}

type requestBody struct {
	TargetID int64  `json:"registro"`
	Message  string `json:"mensaje"`
}

// HandleRequest handles POST /correcciones.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[requestBody](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	req, err := h.service.Request(ctx, requestcontext.Actor(ctx), domain.DeliveryID(body.TargetID), body.Message)
	if err != nil {
		h.logError(ctx, "correction request failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, req)
}

// HandleResolve handles POST /correcciones/{correctionID}/resolver.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseCorrectionID(chi.URLParam(r, "correctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.service.Resolve(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		h.logError(ctx, "correction resolve failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

// HandleGet handles GET /correcciones/{correctionID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseCorrectionID(chi.URLParam(r, "correctionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

// HandleList handles GET /correcciones.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.List(r.Context())
	if err != nil {
		h.logError(r.Context(), "list corrections failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
