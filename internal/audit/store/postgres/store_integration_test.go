//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"maternidad/internal/audit"
	"maternidad/internal/audit/store/postgres"
	"maternidad/pkg/domain"
	"maternidad/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	actor    domain.UserID
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
	s.actor = domain.UserID(uuid.New())
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "historial_acciones", "historial_sesiones")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) entry(action audit.ActionKind, subjectType audit.SubjectType, subjectID int64, at time.Time) audit.Entry {
	actor := s.actor
	return audit.Entry{
		Actor:       &actor,
		ActorName:   "Dra. Rojas",
		Timestamp:   at,
		Action:      action,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Details:     "Registro de prueba",
	}
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := s.store.Append(ctx, s.entry(audit.ActionCreate, audit.SubjectMother, 1, base))
	s.Require().NoError(err)
	s.Require().NotZero(first)

	second, err := s.store.Append(ctx, s.entry(audit.ActionUpdate, audit.SubjectMother, 1, base.Add(time.Hour)))
	s.Require().NoError(err)
	s.Greater(second, first)

	entries, err := s.store.List(ctx, audit.Filter{})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	// Most-recent-first.
	s.Equal(audit.ActionUpdate, entries[0].Action)
	s.Equal(audit.ActionCreate, entries[1].Action)
	s.Require().NotNil(entries[0].Actor)
	s.Equal(s.actor, *entries[0].Actor)
	s.Equal("Dra. Rojas", entries[0].ActorName)
}

func (s *PostgresStoreSuite) TestFilters() {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.store.Append(ctx, s.entry(audit.ActionCreate, audit.SubjectMother, 1, base))
	s.Require().NoError(err)
	_, err = s.store.Append(ctx, s.entry(audit.ActionCreate, audit.SubjectDelivery, 2, base.Add(time.Minute)))
	s.Require().NoError(err)

	other := domain.UserID(uuid.New())
	otherEntry := s.entry(audit.ActionDelete, audit.SubjectDelivery, 2, base.Add(2*time.Minute))
	otherEntry.Actor = &other
	_, err = s.store.Append(ctx, otherEntry)
	s.Require().NoError(err)

	s.Run("by subject type", func() {
		entries, err := s.store.List(ctx, audit.Filter{SubjectType: audit.SubjectMother})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(int64(1), entries[0].SubjectID)
	})

	s.Run("by subject type and id", func() {
		entries, err := s.store.List(ctx, audit.Filter{SubjectType: audit.SubjectDelivery, SubjectID: 2})
		s.Require().NoError(err)
		s.Len(entries, 2)
	})

	s.Run("by actor", func() {
		entries, err := s.store.List(ctx, audit.Filter{Actor: &other})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionDelete, entries[0].Action)
	})

	s.Run("with limit", func() {
		entries, err := s.store.List(ctx, audit.Filter{Limit: 1})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionDelete, entries[0].Action)
	})
}

func (s *PostgresStoreSuite) TestNilActorRoundTrip() {
	ctx := context.Background()
	entry := s.entry(audit.ActionReportGenerated, audit.SubjectReport, 0, time.Now().UTC())
	entry.Actor = nil
	entry.ActorName = "sistema"

	_, err := s.store.Append(ctx, entry)
	s.Require().NoError(err)

	entries, err := s.store.List(ctx, audit.Filter{SubjectType: audit.SubjectReport})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Nil(entries[0].Actor)
	s.Equal("sistema", entries[0].ActorName)
}

func (s *PostgresStoreSuite) TestSessions() {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	actor := s.actor

	_, err := s.store.AppendSession(ctx, audit.SessionEntry{
		Actor: &actor, ActorName: "Dra. Rojas", Timestamp: base,
		Event: audit.SessionLogin, OriginAddr: "10.0.0.5",
	})
	s.Require().NoError(err)
	_, err = s.store.AppendSession(ctx, audit.SessionEntry{
		Actor: &actor, ActorName: "Dra. Rojas", Timestamp: base.Add(8 * time.Hour),
		Event: audit.SessionLogout, OriginAddr: "10.0.0.5",
	})
	s.Require().NoError(err)

	sessions, err := s.store.ListSessions(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(audit.SessionLogout, sessions[0].Event)
	s.Equal("10.0.0.5", sessions[0].OriginAddr)

	limited, err := s.store.ListSessions(ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}
