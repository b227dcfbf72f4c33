package audit

import (
	"context"

	"maternidad/pkg/domain"
)

// Mutation decorators. Every create/update/delete path of every clinical
// entity wraps its store write in one of these so exactly one entry is
// produced per successful mutation, with the audit side effect visible at
// the call site.
//
// Logging is best-effort: a failed audit write never rolls back or blocks
// the wrapped operation (see Recorder.TryRecord).

// Create runs fn and, if it succeeds, records a CREATE entry using the
// resulting entity's current field values.
func Create[T Auditable](ctx context.Context, rec *Recorder, actor domain.Actor, fn func(context.Context) (T, error)) (T, error) {
	entity, err := fn(ctx)
	if err != nil {
		return entity, err
	}
	rec.TryRecord(ctx, actor, ActionCreate, Take(entity), "")
	return entity, nil
}

// Update runs fn and, if it succeeds, records an UPDATE entry using the
// resulting entity's current field values.
func Update[T Auditable](ctx context.Context, rec *Recorder, actor domain.Actor, fn func(context.Context) (T, error)) (T, error) {
	entity, err := fn(ctx)
	if err != nil {
		return entity, err
	}
	rec.TryRecord(ctx, actor, ActionUpdate, Take(entity), "")
	return entity, nil
}

// Delete snapshots the entity's identity and description, runs fn, and
// records a DELETE entry from the snapshot. The snapshot is taken first
// because subject resolution must survive the row's removal.
func Delete[T Auditable](ctx context.Context, rec *Recorder, actor domain.Actor, entity T, fn func(context.Context) error) error {
	snap := Take(entity)
	if err := fn(ctx); err != nil {
		return err
	}
	rec.TryRecord(ctx, actor, ActionDelete, snap, "Eliminó el registro: "+snap.Description)
	return nil
}
