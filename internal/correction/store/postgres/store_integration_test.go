//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"maternidad/internal/correction"
	"maternidad/internal/correction/store"
	"maternidad/internal/correction/store/postgres"
	"maternidad/pkg/domain"
	"maternidad/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "solicitudes_correccion")
	s.Require().NoError(err)
}

func newPending(target domain.DeliveryID) *correction.Request {
	requestedBy := domain.UserID(uuid.New())
	return &correction.Request{
		TargetID:    target,
		RequestedBy: &requestedBy,
		Message:     "Corregir la fecha del parto",
		State:       correction.StatePending,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// TestPendingUniqueness verifies the partial unique index rejects a second
// pending request for the same record.
func (s *PostgresStoreSuite) TestPendingUniqueness() {
	ctx := context.Background()

	id, err := s.store.Create(ctx, newPending(42))
	s.Require().NoError(err)
	s.Require().NotZero(id)

	_, err = s.store.Create(ctx, newPending(42))
	s.Require().ErrorIs(err, store.ErrDuplicatePending)

	_, err = s.store.Create(ctx, newPending(43))
	s.Require().NoError(err)
}

// TestResolveReleasesTarget verifies resolution frees the target for a new
// pending request while keeping the resolved row.
func (s *PostgresStoreSuite) TestResolveReleasesTarget() {
	ctx := context.Background()
	resolver := domain.Actor{ID: domain.UserID(uuid.New()), Name: "Sup. Fuentes", Role: domain.RoleSupervisor}

	id, err := s.store.Create(ctx, newPending(42))
	s.Require().NoError(err)

	req, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().NoError(req.Resolve(resolver, time.Now().UTC()))
	s.Require().NoError(s.store.Update(ctx, req))

	stored, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal(correction.StateResolved, stored.State)
	s.Require().NotNil(stored.ResolvedBy)
	s.Equal(resolver.ID, *stored.ResolvedBy)
	s.Require().NotNil(stored.ResolvedAt)

	_, err = s.store.Create(ctx, newPending(42))
	s.Require().NoError(err)

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	req := newPending(7)
	id, err := s.store.Create(ctx, req)
	s.Require().NoError(err)

	stored, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal(req.TargetID, stored.TargetID)
	s.Equal(req.Message, stored.Message)
	s.Require().NotNil(stored.RequestedBy)
	s.Equal(*req.RequestedBy, *stored.RequestedBy)
	s.Nil(stored.ResolvedBy)
	s.Nil(stored.ResolvedAt)
}

func (s *PostgresStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(context.Background(), 9999)
	s.Require().ErrorIs(err, store.ErrNotFound)
}
