// Package handler exposes the session lifecycle edge: recording login
// events for the external authenticator and revoking tokens on logout.
// Credential verification happens upstream; this layer only logs the
// transitions and maintains the revocation list.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"maternidad/internal/audit"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/platform/httputil"
	"maternidad/pkg/requestcontext"
)

// Revoker marks a token jti as revoked until it would expire naturally.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type Handler struct {
	recorder    *audit.Recorder
	revocations Revoker
	tokenTTL    time.Duration
	logger      *slog.Logger
}

func New(recorder *audit.Recorder, revocations Revoker, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		recorder:    recorder,
		revocations: revocations,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// Register mounts the session endpoints. Both run behind RequireAuth, so
// the actor is already resolved in the request context.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sesiones/login", h.HandleLogin)
	r.Post("/sesiones/logout", h.HandleLogout)
}

type sessionResponse struct {
	ID int64 `json:"id"`
}

// HandleLogin handles POST /sesiones/login: the external authenticator
// reports a successful login so the session trail stays complete.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	id, err := h.recorder.RecordSession(ctx, actor, audit.SessionLogin, requestcontext.ClientIP(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record login",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{ID: id})
}

// HandleLogout handles POST /sesiones/logout: revokes the presented token's
// jti and records the LOGOUT transition. The revocation entry lives for the
// token's full lifetime, which bounds how long a stolen token could outlive
// the logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)

	if h.revocations != nil {
		jti := requestcontext.TokenID(ctx)
		if jti == "" {
			h.logger.WarnContext(ctx, "logout without token id, skipping revocation",
				"request_id", requestcontext.RequestID(ctx))
		} else if err := h.revocations.Revoke(ctx, jti, h.tokenTTL); err != nil {
			h.logger.ErrorContext(ctx, "token revocation failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not revoke session token"))
			return
		}
	}

	id, err := h.recorder.RecordSession(ctx, actor, audit.SessionLogout, requestcontext.ClientIP(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record logout",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{ID: id})
}
