// Package service drives the correction workflow transitions and their
// audit entries. Both transitions log against the target delivery record,
// not the request row, so the record's history shows the correction cycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"maternidad/internal/audit"
	"maternidad/internal/correction"
	"maternidad/internal/correction/store"
	"maternidad/internal/platform/metrics"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/requestcontext"
)

type Service struct {
	store    store.Store
	recorder *audit.Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(st store.Store, recorder *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{store: st, recorder: recorder, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Request opens a pending correction for the target record. A second
// pending request for the same target is rejected with a conflict; the
// check is atomic with the insert at the store.
func (s *Service) Request(ctx context.Context, actor domain.Actor, target domain.DeliveryID, message string) (*correction.Request, error) {
	req, err := correction.NewRequest(target, actor, message, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Create(ctx, req); err != nil {
		if errors.Is(err, store.ErrDuplicatePending) {
			return nil, dErrors.New(dErrors.CodeConflict, "a pending correction request already exists for this record")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create correction request")
	}

	s.recorder.TryRecord(ctx, actor, audit.ActionCorrectionRequested,
		audit.Snapshot{Type: audit.SubjectDelivery, ID: int64(target)},
		fmt.Sprintf("Solicitó corrección del parto %d: %s", target, req.Message))
	if s.metrics != nil {
		s.metrics.CorrectionsOpened.Inc()
	}
	return req, nil
}

// Resolve applies the one-way PENDING to RESOLVED transition.
func (s *Service) Resolve(ctx context.Context, actor domain.Actor, id domain.CorrectionID) (*correction.Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "correction request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load correction request")
	}
	if err := req.Resolve(actor, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, req); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "correction request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update correction request")
	}

	s.recorder.TryRecord(ctx, actor, audit.ActionCorrectionResolved,
		audit.Snapshot{Type: audit.SubjectDelivery, ID: int64(req.TargetID)},
		fmt.Sprintf("Resolvió la solicitud de corrección %d del parto %d", req.ID, req.TargetID))
	if s.metrics != nil {
		s.metrics.CorrectionsResolved.Inc()
	}
	return req, nil
}

func (s *Service) Get(ctx context.Context, id domain.CorrectionID) (*correction.Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "correction request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load correction request")
	}
	return req, nil
}

func (s *Service) List(ctx context.Context) ([]correction.Request, error) {
	requests, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list correction requests")
	}
	return requests, nil
}
