// Package httptransport assembles the HTTP surface: middleware chain,
// health and metrics endpoints, and the per-domain handler registrations.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"maternidad/internal/platform/middleware"
)

// Registrar is the per-domain handler contract: each handler mounts its own
// routes on the shared router.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs. All handlers behind Auth run
// with a resolved actor in the request context.
type Deps struct {
	Logger      *slog.Logger
	Validator   middleware.TokenValidator
	Revocations middleware.RevocationChecker
	Handlers    []Registrar
}

// NewRouter builds the chi router with the standard middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Revocations, deps.Logger))
		for _, h := range deps.Handlers {
			h.Register(r)
		}
	})

	return r
}
