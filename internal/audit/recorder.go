package audit

import (
	"context"
	"fmt"
	"log/slog"

	"maternidad/internal/platform/metrics"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/requestcontext"
)

// Store persists log entries. Implementations must keep entries immutable
// and return them most-recent-first.
type Store interface {
	Append(ctx context.Context, entry Entry) (int64, error)
	List(ctx context.Context, filter Filter) ([]Entry, error)
	AppendSession(ctx context.Context, entry SessionEntry) (int64, error)
	ListSessions(ctx context.Context, limit int) ([]SessionEntry, error)
}

// Publisher mirrors entries to an external sink (Kafka). Emit must not
// block or fail the caller; implementations handle their own errors.
type Publisher interface {
	Emit(entry Entry)
}

// Recorder is the single write path into the event and session logs.
//
// Record propagates storage failures to callers that need the entry id.
// The TryRecord path is the best-effort contract the interceptor relies on:
// a failed audit write is logged and counted, never surfaced, so an audit
// outage cannot block clinical workflows.
type Recorder struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

func WithPublisher(p Publisher) RecorderOption {
	return func(r *Recorder) { r.publisher = p }
}

func NewRecorder(store Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	rec := &Recorder{store: store, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(rec)
		}
	}
	return rec
}

// Record appends one action entry and returns its id. Details defaults to an
// auto-generated description when empty.
func (r *Recorder) Record(ctx context.Context, actor domain.Actor, action ActionKind, subjectType SubjectType, subjectID int64, details string) (int64, error) {
	entry := r.buildEntry(ctx, actor, action, Snapshot{Type: subjectType, ID: subjectID}, details)
	id, err := r.store.Append(ctx, entry)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	entry.ID = id
	r.afterWrite(entry)
	return id, nil
}

// TryRecord appends one action entry, best-effort. Failures are diagnosed
// via the logger and the failure counter and otherwise swallowed.
func (r *Recorder) TryRecord(ctx context.Context, actor domain.Actor, action ActionKind, snap Snapshot, details string) {
	entry := r.buildEntry(ctx, actor, action, snap, details)
	id, err := r.store.Append(ctx, entry)
	if err != nil {
		r.logger.WarnContext(ctx, "audit write failed, continuing",
			"error", err,
			"accion", string(action),
			"tipo_objeto", string(snap.Type),
			"objeto_id", snap.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		if r.metrics != nil {
			r.metrics.AuditWriteFailures.Inc()
		}
		return
	}
	entry.ID = id
	r.afterWrite(entry)
}

// RecordSession appends one login/logout entry.
func (r *Recorder) RecordSession(ctx context.Context, actor domain.Actor, kind SessionEventKind, originAddr string) (int64, error) {
	entry := SessionEntry{
		Timestamp:  requestcontext.Now(ctx),
		Event:      kind,
		ActorName:  actor.Name,
		OriginAddr: originAddr,
	}
	if !actor.ID.IsNil() {
		actorID := actor.ID
		entry.Actor = &actorID
	}
	id, err := r.store.AppendSession(ctx, entry)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append session entry")
	}
	if r.metrics != nil {
		r.metrics.SessionsRecorded.WithLabelValues(string(kind)).Inc()
	}
	return id, nil
}

// List returns action entries most-recent-first, optionally filtered by
// subject and/or actor.
func (r *Recorder) List(ctx context.Context, filter Filter) ([]Entry, error) {
	entries, err := r.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	return entries, nil
}

// ListSessions returns session entries most-recent-first.
func (r *Recorder) ListSessions(ctx context.Context, limit int) ([]SessionEntry, error) {
	entries, err := r.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list session entries")
	}
	return entries, nil
}

func (r *Recorder) buildEntry(ctx context.Context, actor domain.Actor, action ActionKind, snap Snapshot, details string) Entry {
	if details == "" {
		details = defaultDetails(action, snap)
	}
	entry := Entry{
		Timestamp:   requestcontext.Now(ctx),
		Action:      action,
		ActorName:   actor.Name,
		SubjectType: snap.Type,
		SubjectID:   snap.ID,
		Details:     details,
	}
	if !actor.ID.IsNil() {
		actorID := actor.ID
		entry.Actor = &actorID
	}
	return entry
}

func (r *Recorder) afterWrite(entry Entry) {
	if r.metrics != nil {
		r.metrics.AuditEntries.WithLabelValues(string(entry.Action)).Inc()
	}
	if r.publisher != nil {
		r.publisher.Emit(entry)
	}
}

func defaultDetails(action ActionKind, snap Snapshot) string {
	subject := snap.Description
	if subject == "" {
		subject = fmt.Sprintf("%s ID %d", snap.Type, snap.ID)
	}
	return fmt.Sprintf("Acción %s realizada sobre %s", action, subject)
}
