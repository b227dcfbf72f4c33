// Package store defines persistence for the clinical record corpus. The
// memory and postgres implementations are behaviorally interchangeable;
// both also serve the report engine's range-filtered snapshot queries.
package store

import (
	"context"

	"maternidad/internal/clinical/models"
	"maternidad/internal/report"
	"maternidad/pkg/domain"
	"maternidad/pkg/platform/sentinel"
)

// Sentinel errors shared by all implementations.
var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

// Store persists mothers, deliveries, newborns and death records. Reads of
// missing rows return ErrNotFound; RUT collisions on mother writes return
// ErrConflict.
type Store interface {
	report.Reader

	CreateMother(ctx context.Context, m *models.Mother) (domain.MotherID, error)
	GetMother(ctx context.Context, id domain.MotherID) (*models.Mother, error)
	ListMothers(ctx context.Context) ([]models.Mother, error)
	UpdateMother(ctx context.Context, m *models.Mother) error
	DeleteMother(ctx context.Context, id domain.MotherID) error

	CreateDelivery(ctx context.Context, d *models.Delivery) (domain.DeliveryID, error)
	GetDelivery(ctx context.Context, id domain.DeliveryID) (*models.Delivery, error)
	ListDeliveries(ctx context.Context) ([]models.Delivery, error)
	UpdateDelivery(ctx context.Context, d *models.Delivery) error
	DeleteDelivery(ctx context.Context, id domain.DeliveryID) error

	CreateNewborn(ctx context.Context, n *models.Newborn) (domain.NewbornID, error)
	GetNewborn(ctx context.Context, id domain.NewbornID) (*models.Newborn, error)
	ListNewborns(ctx context.Context) ([]models.Newborn, error)
	UpdateNewborn(ctx context.Context, n *models.Newborn) error
	DeleteNewborn(ctx context.Context, id domain.NewbornID) error

	CreateDeath(ctx context.Context, d *models.Death) (domain.DeathID, error)
	GetDeath(ctx context.Context, id domain.DeathID) (*models.Death, error)
	ListDeaths(ctx context.Context) ([]models.Death, error)
	DeleteDeath(ctx context.Context, id domain.DeathID) error
}
