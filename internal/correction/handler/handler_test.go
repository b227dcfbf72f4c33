package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"maternidad/internal/audit"
	auditmemory "maternidad/internal/audit/store/memory"
	"maternidad/internal/correction"
	"maternidad/internal/correction/service"
	"maternidad/internal/correction/store/memory"
	"maternidad/pkg/domain"
	"maternidad/pkg/requestcontext"
)

func newCorrectionRouter(t *testing.T, actor domain.Actor) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(auditmemory.New(), logger)
	svc := service.New(memory.New(), recorder, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithActor(req.Context(), actor)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, logger).Register(r)
	return r
}

func doctor() domain.Actor {
	return domain.Actor{ID: domain.UserID(uuid.New()), Name: "Dra. Rojas", Role: domain.RoleDoctor}
}

func supervisor() domain.Actor {
	return domain.Actor{ID: domain.UserID(uuid.New()), Name: "Sup. Fuentes", Role: domain.RoleSupervisor}
}

func postJSON(t *testing.T, router chi.Router, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestCorrection(t *testing.T) {
	router := newCorrectionRouter(t, doctor())

	rec := postJSON(t, router, "/correcciones", map[string]any{
		"registro": 42,
		"mensaje":  "Peso registrado incorrecto",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating correction, got %d: %s", rec.Code, rec.Body.String())
	}

	var created correction.Request
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == 0 || created.State != correction.StatePending {
		t.Fatalf("expected pending request with id, got %+v", created)
	}

	// A second pending request for the same record conflicts.
	rec = postJSON(t, router, "/correcciones", map[string]any{
		"registro": 42,
		"mensaje":  "Otra observación",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate pending, got %d", rec.Code)
	}
}

func TestResolveRequiresSupervisoryRole(t *testing.T) {
	router := newCorrectionRouter(t, doctor())

	rec := postJSON(t, router, "/correcciones", map[string]any{
		"registro": 42,
		"mensaje":  "Peso registrado incorrecto",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating correction, got %d", rec.Code)
	}

	rec = postJSON(t, router, "/correcciones/1/resolver", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 resolving as doctor, got %d", rec.Code)
	}
}

func TestResolveAsSupervisor(t *testing.T) {
	router := newCorrectionRouter(t, supervisor())

	rec := postJSON(t, router, "/correcciones", map[string]any{
		"registro": 42,
		"mensaje":  "Peso registrado incorrecto",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating correction, got %d", rec.Code)
	}

	rec = postJSON(t, router, "/correcciones/1/resolver", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 resolving correction, got %d: %s", rec.Code, rec.Body.String())
	}

	var resolved correction.Request
	if err := json.NewDecoder(rec.Body).Decode(&resolved); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resolved.State != correction.StateResolved || resolved.ResolvedAt == nil {
		t.Fatalf("expected resolved request, got %+v", resolved)
	}

	// Resolving twice violates the one-way transition.
	rec = postJSON(t, router, "/correcciones/1/resolver", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double resolve, got %d", rec.Code)
	}
}

func TestGetAndList(t *testing.T) {
	router := newCorrectionRouter(t, doctor())

	rec := postJSON(t, router, "/correcciones", map[string]any{
		"registro": 42,
		"mensaje":  "Peso registrado incorrecto",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating correction, got %d", rec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/correcciones/1", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching correction, got %d", getRec.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/correcciones", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing corrections, got %d", listRec.Code)
	}

	var listed []correction.Request
	if err := json.NewDecoder(listRec.Body).Decode(&listed); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one correction, got %d", len(listed))
	}

	missingReq := httptest.NewRequest(http.MethodGet, "/correcciones/99", nil)
	missingRec := httptest.NewRecorder()
	router.ServeHTTP(missingRec, missingReq)
	if missingRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown correction, got %d", missingRec.Code)
	}
}
