// Package service implements the clinical record workflows. Every mutation
// goes through the audit decorators so exactly one log entry is produced
// per successful write.
package service

import (
	"context"
	"errors"
	"log/slog"

	"maternidad/internal/audit"
	"maternidad/internal/clinical/models"
	"maternidad/internal/clinical/store"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
)

type Service struct {
	store    store.Store
	recorder *audit.Recorder
	logger   *slog.Logger
}

func New(st store.Store, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: st, recorder: recorder, logger: logger}
}

func mapStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}

// ----- mothers -----

func (s *Service) CreateMother(ctx context.Context, actor domain.Actor, m *models.Mother) (*models.Mother, error) {
	return audit.Create(ctx, s.recorder, actor, func(ctx context.Context) (*models.Mother, error) {
		if _, err := s.store.CreateMother(ctx, m); err != nil {
			return nil, mapStoreErr(err, "mother")
		}
		return m, nil
	})
}

func (s *Service) GetMother(ctx context.Context, id domain.MotherID) (*models.Mother, error) {
	m, err := s.store.GetMother(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "mother")
	}
	return m, nil
}

func (s *Service) ListMothers(ctx context.Context) ([]models.Mother, error) {
	mothers, err := s.store.ListMothers(ctx)
	if err != nil {
		return nil, mapStoreErr(err, "mothers")
	}
	return mothers, nil
}

func (s *Service) UpdateMother(ctx context.Context, actor domain.Actor, m *models.Mother) (*models.Mother, error) {
	return audit.Update(ctx, s.recorder, actor, func(ctx context.Context) (*models.Mother, error) {
		if err := s.store.UpdateMother(ctx, m); err != nil {
			return nil, mapStoreErr(err, "mother")
		}
		return m, nil
	})
}

func (s *Service) DeleteMother(ctx context.Context, actor domain.Actor, id domain.MotherID) error {
	m, err := s.store.GetMother(ctx, id)
	if err != nil {
		return mapStoreErr(err, "mother")
	}
	return audit.Delete(ctx, s.recorder, actor, m, func(ctx context.Context) error {
		if err := s.store.DeleteMother(ctx, id); err != nil {
			return mapStoreErr(err, "mother")
		}
		return nil
	})
}

// ----- deliveries -----

// CreateDelivery stamps the creating clinician onto the record before the
// write so the attribution survives independently of the audit log.
func (s *Service) CreateDelivery(ctx context.Context, actor domain.Actor, d *models.Delivery) (*models.Delivery, error) {
	if !actor.ID.IsNil() {
		actorID := actor.ID
		d.RegisteredBy = &actorID
	}
	return audit.Create(ctx, s.recorder, actor, func(ctx context.Context) (*models.Delivery, error) {
		if _, err := s.store.CreateDelivery(ctx, d); err != nil {
			return nil, mapStoreErr(err, "delivery")
		}
		return d, nil
	})
}

func (s *Service) GetDelivery(ctx context.Context, id domain.DeliveryID) (*models.Delivery, error) {
	d, err := s.store.GetDelivery(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "delivery")
	}
	return d, nil
}

func (s *Service) ListDeliveries(ctx context.Context) ([]models.Delivery, error) {
	deliveries, err := s.store.ListDeliveries(ctx)
	if err != nil {
		return nil, mapStoreErr(err, "deliveries")
	}
	return deliveries, nil
}

func (s *Service) UpdateDelivery(ctx context.Context, actor domain.Actor, d *models.Delivery) (*models.Delivery, error) {
	return audit.Update(ctx, s.recorder, actor, func(ctx context.Context) (*models.Delivery, error) {
		if err := s.store.UpdateDelivery(ctx, d); err != nil {
			return nil, mapStoreErr(err, "delivery")
		}
		return d, nil
	})
}

func (s *Service) DeleteDelivery(ctx context.Context, actor domain.Actor, id domain.DeliveryID) error {
	d, err := s.store.GetDelivery(ctx, id)
	if err != nil {
		return mapStoreErr(err, "delivery")
	}
	return audit.Delete(ctx, s.recorder, actor, d, func(ctx context.Context) error {
		if err := s.store.DeleteDelivery(ctx, id); err != nil {
			return mapStoreErr(err, "delivery")
		}
		return nil
	})
}

// ----- newborns -----

func (s *Service) CreateNewborn(ctx context.Context, actor domain.Actor, n *models.Newborn) (*models.Newborn, error) {
	return audit.Create(ctx, s.recorder, actor, func(ctx context.Context) (*models.Newborn, error) {
		if _, err := s.store.CreateNewborn(ctx, n); err != nil {
			return nil, mapStoreErr(err, "newborn")
		}
		return n, nil
	})
}

func (s *Service) GetNewborn(ctx context.Context, id domain.NewbornID) (*models.Newborn, error) {
	n, err := s.store.GetNewborn(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "newborn")
	}
	return n, nil
}

func (s *Service) ListNewborns(ctx context.Context) ([]models.Newborn, error) {
	newborns, err := s.store.ListNewborns(ctx)
	if err != nil {
		return nil, mapStoreErr(err, "newborns")
	}
	return newborns, nil
}

func (s *Service) UpdateNewborn(ctx context.Context, actor domain.Actor, n *models.Newborn) (*models.Newborn, error) {
	return audit.Update(ctx, s.recorder, actor, func(ctx context.Context) (*models.Newborn, error) {
		if err := s.store.UpdateNewborn(ctx, n); err != nil {
			return nil, mapStoreErr(err, "newborn")
		}
		return n, nil
	})
}

func (s *Service) DeleteNewborn(ctx context.Context, actor domain.Actor, id domain.NewbornID) error {
	n, err := s.store.GetNewborn(ctx, id)
	if err != nil {
		return mapStoreErr(err, "newborn")
	}
	return audit.Delete(ctx, s.recorder, actor, n, func(ctx context.Context) error {
		if err := s.store.DeleteNewborn(ctx, id); err != nil {
			return mapStoreErr(err, "newborn")
		}
		return nil
	})
}

// ----- deaths -----

func (s *Service) CreateDeath(ctx context.Context, actor domain.Actor, d *models.Death) (*models.Death, error) {
	return audit.Create(ctx, s.recorder, actor, func(ctx context.Context) (*models.Death, error) {
		if _, err := s.store.CreateDeath(ctx, d); err != nil {
			return nil, mapStoreErr(err, "death record")
		}
		return d, nil
	})
}

func (s *Service) GetDeath(ctx context.Context, id domain.DeathID) (*models.Death, error) {
	d, err := s.store.GetDeath(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "death record")
	}
	return d, nil
}

func (s *Service) ListDeaths(ctx context.Context) ([]models.Death, error) {
	deaths, err := s.store.ListDeaths(ctx)
	if err != nil {
		return nil, mapStoreErr(err, "death records")
	}
	return deaths, nil
}

func (s *Service) DeleteDeath(ctx context.Context, actor domain.Actor, id domain.DeathID) error {
	d, err := s.store.GetDeath(ctx, id)
	if err != nil {
		return mapStoreErr(err, "death record")
	}
	return audit.Delete(ctx, s.recorder, actor, d, func(ctx context.Context) error {
		if err := s.store.DeleteDeath(ctx, id); err != nil {
			return mapStoreErr(err, "death record")
		}
		return nil
	})
}
