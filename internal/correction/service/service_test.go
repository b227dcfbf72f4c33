package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"maternidad/internal/audit"
	auditmemory "maternidad/internal/audit/store/memory"
	"maternidad/internal/correction"
	"maternidad/internal/correction/service"
	"maternidad/internal/correction/store/memory"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	auditStore *auditmemory.Store
	service    *service.Service
	ctx        context.Context
	requester  domain.Actor
	supervisor domain.Actor
}

func (s *ServiceSuite) SetupTest() {
	s.auditStore = auditmemory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(s.auditStore, logger)
	s.service = service.New(memory.New(), recorder, logger)
	s.ctx = context.Background()
	s.requester = domain.Actor{ID: domain.UserID(uuid.New()), Name: "Dra. Rojas", Role: domain.RoleDoctor}
	s.supervisor = domain.Actor{ID: domain.UserID(uuid.New()), Name: "Sup. Fuentes", Role: domain.RoleSupervisor}
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// TestRequest verifies creation and the single-pending invariant.
func (s *ServiceSuite) TestRequest() {
	s.Run("creates a pending request", func() {
		req, err := s.service.Request(s.ctx, s.requester, 42, "Peso registrado incorrecto")
		s.Require().NoError(err)
		s.Equal(correction.StatePending, req.State)
		s.Equal(domain.DeliveryID(42), req.TargetID)
		s.Require().NotNil(req.RequestedBy)
		s.Equal(s.requester.ID, *req.RequestedBy)
		s.Nil(req.ResolvedAt)
	})

	s.Run("rejects a second pending request for the same target", func() {
		_, err := s.service.Request(s.ctx, s.requester, 42, "Otra observación")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("allows a pending request for a different target", func() {
		_, err := s.service.Request(s.ctx, s.requester, 43, "Fecha incorrecta")
		s.Require().NoError(err)
	})

	s.Run("rejects an empty message", func() {
		_, err := s.service.Request(s.ctx, s.requester, 44, "   ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("emits the request entry against the target record", func() {
		entries, err := s.auditStore.List(s.ctx, audit.Filter{SubjectType: audit.SubjectDelivery, SubjectID: 42})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionCorrectionRequested, entries[0].Action)
	})
}

// TestResolve verifies the one-way transition.
func (s *ServiceSuite) TestResolve() {
	resolvedAt := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, resolvedAt)

	req, err := s.service.Request(s.ctx, s.requester, 42, "Peso registrado incorrecto")
	s.Require().NoError(err)

	s.Run("resolves a pending request", func() {
		resolved, err := s.service.Resolve(ctx, s.supervisor, req.ID)
		s.Require().NoError(err)
		s.Equal(correction.StateResolved, resolved.State)
		s.Require().NotNil(resolved.ResolvedAt)
		s.True(resolved.ResolvedAt.Equal(resolvedAt))
		s.Require().NotNil(resolved.ResolvedBy)
		s.Equal(s.supervisor.ID, *resolved.ResolvedBy)
	})

	s.Run("second resolve fails with an invariant violation", func() {
		_, err := s.service.Resolve(ctx, s.supervisor, req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("a new request for the target is allowed after resolution", func() {
		_, err := s.service.Request(s.ctx, s.requester, 42, "Nueva observación")
		s.Require().NoError(err)
	})

	s.Run("unknown request id is not found", func() {
		_, err := s.service.Resolve(ctx, s.supervisor, 9999)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("emits the resolution entry against the target record", func() {
		entries, err := s.auditStore.List(s.ctx, audit.Filter{SubjectType: audit.SubjectDelivery, SubjectID: 42})
		s.Require().NoError(err)

		var kinds []audit.ActionKind
		for _, e := range entries {
			kinds = append(kinds, e.Action)
		}
		s.Contains(kinds, audit.ActionCorrectionResolved)
	})
}

// TestAuditOutage verifies correction transitions survive a dead log sink.
func (s *ServiceSuite) TestAuditOutage() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(deadStore{}, logger)
	svc := service.New(memory.New(), recorder, logger)

	req, err := svc.Request(s.ctx, s.requester, 7, "Observación")
	s.Require().NoError(err)

	resolved, err := svc.Resolve(s.ctx, s.supervisor, req.ID)
	s.Require().NoError(err)
	s.Equal(correction.StateResolved, resolved.State)
}

type deadStore struct{}

func (deadStore) Append(context.Context, audit.Entry) (int64, error) {
	return 0, context.DeadlineExceeded
}
func (deadStore) List(context.Context, audit.Filter) ([]audit.Entry, error) {
	return nil, context.DeadlineExceeded
}
func (deadStore) AppendSession(context.Context, audit.SessionEntry) (int64, error) {
	return 0, context.DeadlineExceeded
}
func (deadStore) ListSessions(context.Context, int) ([]audit.SessionEntry, error) {
	return nil, context.DeadlineExceeded
}
