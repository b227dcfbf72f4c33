package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"maternidad/internal/audit"
	"maternidad/internal/audit/store/memory"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/requestcontext"
)

// failingStore rejects every write so tests can exercise the best-effort
// contract.
type failingStore struct{}

func (failingStore) Append(context.Context, audit.Entry) (int64, error) {
	return 0, errors.New("storage down")
}
func (failingStore) List(context.Context, audit.Filter) ([]audit.Entry, error) {
	return nil, errors.New("storage down")
}
func (failingStore) AppendSession(context.Context, audit.SessionEntry) (int64, error) {
	return 0, errors.New("storage down")
}
func (failingStore) ListSessions(context.Context, int) ([]audit.SessionEntry, error) {
	return nil, errors.New("storage down")
}

type capturingPublisher struct {
	entries []audit.Entry
}

func (p *capturingPublisher) Emit(entry audit.Entry) { p.entries = append(p.entries, entry) }

type RecorderSuite struct {
	suite.Suite
	store    *memory.Store
	recorder *audit.Recorder
	ctx      context.Context
	actor    domain.Actor
}

func (s *RecorderSuite) SetupTest() {
	s.store = memory.New()
	s.recorder = audit.NewRecorder(s.store, discardLogger())
	s.ctx = context.Background()
	s.actor = domain.Actor{
		ID:   domain.UserID(uuid.New()),
		Name: "Dra. Rojas",
		Role: domain.RoleDoctor,
	}
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRecord verifies entry creation and the auto-generated description.
func (s *RecorderSuite) TestRecord() {
	s.Run("returns the new entry id", func() {
		id, err := s.recorder.Record(s.ctx, s.actor, audit.ActionCreate, audit.SubjectMother, 7, "Creó la madre")
		s.Require().NoError(err)
		s.Positive(id)
	})

	s.Run("fills default details when empty", func() {
		_, err := s.recorder.Record(s.ctx, s.actor, audit.ActionUpdate, audit.SubjectDelivery, 3, "")
		s.Require().NoError(err)

		entries, err := s.recorder.List(s.ctx, audit.Filter{SubjectType: audit.SubjectDelivery, SubjectID: 3})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Contains(entries[0].Details, string(audit.ActionUpdate))
	})

	s.Run("uses the injected clock", func() {
		fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(s.ctx, fixed)

		_, err := s.recorder.Record(ctx, s.actor, audit.ActionCreate, audit.SubjectNewborn, 9, "")
		s.Require().NoError(err)

		entries, err := s.recorder.List(s.ctx, audit.Filter{SubjectType: audit.SubjectNewborn, SubjectID: 9})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.True(entries[0].Timestamp.Equal(fixed))
	})

	s.Run("propagates storage failure with an internal code", func() {
		broken := audit.NewRecorder(failingStore{}, discardLogger())
		_, err := broken.Record(s.ctx, s.actor, audit.ActionCreate, audit.SubjectMother, 1, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// TestTryRecord verifies the best-effort contract: failures are swallowed.
func (s *RecorderSuite) TestTryRecord() {
	s.Run("does not panic or propagate when the store fails", func() {
		broken := audit.NewRecorder(failingStore{}, discardLogger())
		s.NotPanics(func() {
			broken.TryRecord(s.ctx, s.actor, audit.ActionDelete,
				audit.Snapshot{Type: audit.SubjectMother, ID: 1, Description: "x"}, "")
		})
	})

	s.Run("writes the entry when the store works", func() {
		s.recorder.TryRecord(s.ctx, s.actor, audit.ActionCorrectionRequested,
			audit.Snapshot{Type: audit.SubjectDelivery, ID: 42}, "Solicitó corrección")

		entries, err := s.recorder.List(s.ctx, audit.Filter{SubjectType: audit.SubjectDelivery, SubjectID: 42})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionCorrectionRequested, entries[0].Action)
	})
}

// TestPublisher verifies successful writes are mirrored to the publisher
// and failed writes are not.
func (s *RecorderSuite) TestPublisher() {
	s.Run("mirrors successful writes", func() {
		pub := &capturingPublisher{}
		rec := audit.NewRecorder(memory.New(), discardLogger(), audit.WithPublisher(pub))

		_, err := rec.Record(s.ctx, s.actor, audit.ActionCreate, audit.SubjectMother, 5, "")
		s.Require().NoError(err)
		s.Require().Len(pub.entries, 1)
		s.Equal(int64(5), pub.entries[0].SubjectID)
	})

	s.Run("skips the publisher on storage failure", func() {
		pub := &capturingPublisher{}
		rec := audit.NewRecorder(failingStore{}, discardLogger(), audit.WithPublisher(pub))

		rec.TryRecord(s.ctx, s.actor, audit.ActionCreate, audit.Snapshot{Type: audit.SubjectMother, ID: 5}, "")
		s.Empty(pub.entries)
	})
}

// TestSessions verifies the session log paths.
func (s *RecorderSuite) TestSessions() {
	s.Run("records login and logout", func() {
		_, err := s.recorder.RecordSession(s.ctx, s.actor, audit.SessionLogin, "10.0.0.5")
		s.Require().NoError(err)
		_, err = s.recorder.RecordSession(s.ctx, s.actor, audit.SessionLogout, "10.0.0.5")
		s.Require().NoError(err)

		entries, err := s.recorder.ListSessions(s.ctx, 0)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		// Most-recent-first.
		s.Equal(audit.SessionLogout, entries[0].Event)
		s.Equal(audit.SessionLogin, entries[1].Event)
	})

	s.Run("propagates storage failure", func() {
		broken := audit.NewRecorder(failingStore{}, discardLogger())
		_, err := broken.RecordSession(s.ctx, s.actor, audit.SessionLogin, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
