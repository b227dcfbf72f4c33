// Package handler exposes the clinical record CRUD endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"maternidad/internal/clinical/models"
	"maternidad/internal/platform/middleware"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/platform/httputil"
	"maternidad/pkg/requestcontext"
)

// Service defines the clinical operations the handler depends on.
type Service interface {
	CreateMother(ctx context.Context, actor domain.Actor, m *models.Mother) (*models.Mother, error)
	GetMother(ctx context.Context, id domain.MotherID) (*models.Mother, error)
	ListMothers(ctx context.Context) ([]models.Mother, error)
	UpdateMother(ctx context.Context, actor domain.Actor, m *models.Mother) (*models.Mother, error)
	DeleteMother(ctx context.Context, actor domain.Actor, id domain.MotherID) error

	CreateDelivery(ctx context.Context, actor domain.Actor, d *models.Delivery) (*models.Delivery, error)
	GetDelivery(ctx context.Context, id domain.DeliveryID) (*models.Delivery, error)
	ListDeliveries(ctx context.Context) ([]models.Delivery, error)
	UpdateDelivery(ctx context.Context, actor domain.Actor, d *models.Delivery) (*models.Delivery, error)
	DeleteDelivery(ctx context.Context, actor domain.Actor, id domain.DeliveryID) error

	CreateNewborn(ctx context.Context, actor domain.Actor, n *models.Newborn) (*models.Newborn, error)
	GetNewborn(ctx context.Context, id domain.NewbornID) (*models.Newborn, error)
	ListNewborns(ctx context.Context) ([]models.Newborn, error)
	UpdateNewborn(ctx context.Context, actor domain.Actor, n *models.Newborn) (*models.Newborn, error)
	DeleteNewborn(ctx context.Context, actor domain.Actor, id domain.NewbornID) error

	CreateDeath(ctx context.Context, actor domain.Actor, d *models.Death) (*models.Death, error)
	GetDeath(ctx context.Context, id domain.DeathID) (*models.Death, error)
	ListDeaths(ctx context.Context) ([]models.Death, error)
	DeleteDeath(ctx context.Context, actor domain.Actor, id domain.DeathID) error
}

// Handler wires clinical record endpoints to the clinical service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the clinical endpoints. Deletes are restricted to
// supervisory accounts; everything else is open to any authenticated role.
func (h *Handler) Register(r chi.Router) {
	supervisory := middleware.RequireRole(domain.RoleAdmin, domain.RoleSupervisor)

	r.Route("/madres", func(r chi.Router) {
		r.Get("/", h.HandleListMothers)
		r.Post("/", h.HandleCreateMother)
		r.Get("/{motherID}", h.HandleGetMother)
		r.Put("/{motherID}", h.HandleUpdateMother)
		r.With(supervisory).Delete("/{motherID}", h.HandleDeleteMother)
	})
	r.Route("/partos", func(r chi.Router) {
		r.Get("/", h.HandleListDeliveries)
		r.Post("/", h.HandleCreateDelivery)
		r.Get("/{deliveryID}", h.HandleGetDelivery)
		r.Put("/{deliveryID}", h.HandleUpdateDelivery)
		r.With(supervisory).Delete("/{deliveryID}", h.HandleDeleteDelivery)
	})
	r.Route("/recien-nacidos", func(r chi.Router) {
		r.Get("/", h.HandleListNewborns)
		r.Post("/", h.HandleCreateNewborn)
		r.Get("/{newbornID}", h.HandleGetNewborn)
		r.Put("/{newbornID}", h.HandleUpdateNewborn)
		r.With(supervisory).Delete("/{newbornID}", h.HandleDeleteNewborn)
	})
	r.Route("/defunciones", func(r chi.Router) {
		r.Get("/", h.HandleListDeaths)
		r.Post("/", h.HandleCreateDeath)
		r.Get("/{deathID}", h.HandleGetDeath)
		r.With(supervisory).Delete("/{deathID}", h.HandleDeleteDeath)
	})
}

// ----- mothers -----

func (h *Handler) HandleCreateMother(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[motherRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	m, err := req.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.CreateMother(ctx, requestcontext.Actor(ctx), m)
	if err != nil {
		h.logError(ctx, "create mother failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) HandleGetMother(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseMotherID(chi.URLParam(r, "motherID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.service.GetMother(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) HandleListMothers(w http.ResponseWriter, r *http.Request) {
	mothers, err := h.service.ListMothers(r.Context())
	if err != nil {
		h.logError(r.Context(), "list mothers failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, mothers)
}

func (h *Handler) HandleUpdateMother(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseMotherID(chi.URLParam(r, "motherID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[motherRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	m, err := req.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m.ID = id
	updated, err := h.service.UpdateMother(ctx, requestcontext.Actor(ctx), m)
	if err != nil {
		h.logError(ctx, "update mother failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDeleteMother(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseMotherID(chi.URLParam(r, "motherID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteMother(ctx, requestcontext.Actor(ctx), id); err != nil {
		h.logError(ctx, "delete mother failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- deliveries -----

func (h *Handler) HandleCreateDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[deliveryRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := req.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.CreateDelivery(ctx, requestcontext.Actor(ctx), d)
	if err != nil {
		h.logError(ctx, "create delivery failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) HandleGetDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDeliveryID(chi.URLParam(r, "deliveryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.GetDelivery(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleListDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.service.ListDeliveries(r.Context())
	if err != nil {
		h.logError(r.Context(), "list deliveries failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deliveries)
}

func (h *Handler) HandleUpdateDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDeliveryID(chi.URLParam(r, "deliveryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[deliveryRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := req.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d.ID = id
	updated, err := h.service.UpdateDelivery(ctx, requestcontext.Actor(ctx), d)
	if err != nil {
		h.logError(ctx, "update delivery failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDeleteDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDeliveryID(chi.URLParam(r, "deliveryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteDelivery(ctx, requestcontext.Actor(ctx), id); err != nil {
		h.logError(ctx, "delete delivery failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- newborns -----

func (h *Handler) HandleCreateNewborn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[newbornRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	n, err := req.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.CreateNewborn(ctx, requestcontext.Actor(ctx), n)
	if err != nil {
		h.logError(ctx, "create newborn failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) HandleGetNewborn(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseNewbornID(chi.URLParam(r, "newbornID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, err := h.service.GetNewborn(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) HandleListNewborns(w http.ResponseWriter, r *http.Request) {
	newborns, err := h.service.ListNewborns(r.Context())
	if err != nil {
		h.logError(r.Context(), "list newborns failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newborns)
}

func (h *Handler) HandleUpdateNewborn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseNewbornID(chi.URLParam(r, "newbornID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[newbornRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	n, err := req.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n.ID = id
	updated, err := h.service.UpdateNewborn(ctx, requestcontext.Actor(ctx), n)
	if err != nil {
		h.logError(ctx, "update newborn failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDeleteNewborn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseNewbornID(chi.URLParam(r, "newbornID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteNewborn(ctx, requestcontext.Actor(ctx), id); err != nil {
		h.logError(ctx, "delete newborn failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- deaths -----

func (h *Handler) HandleCreateDeath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[deathRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := req.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.CreateDeath(ctx, requestcontext.Actor(ctx), d)
	if err != nil {
		h.logError(ctx, "create death record failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) HandleGetDeath(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDeathID(chi.URLParam(r, "deathID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.GetDeath(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleListDeaths(w http.ResponseWriter, r *http.Request) {
	deaths, err := h.service.ListDeaths(r.Context())
	if err != nil {
		h.logError(r.Context(), "list death records failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deaths)
}

func (h *Handler) HandleDeleteDeath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDeathID(chi.URLParam(r, "deathID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteDeath(ctx, requestcontext.Actor(ctx), id); err != nil {
		h.logError(ctx, "delete death record failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
