// Package store defines persistence for correction requests. Create must
// enforce the single-pending-per-target invariant atomically with the
// insert: a partial unique index in postgres, a scan under the write lock
// in memory.
package store

import (
	"context"

	"maternidad/internal/correction"
	"maternidad/pkg/domain"
	"maternidad/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrDuplicatePending rejects a second pending request for one target.
	ErrDuplicatePending = sentinel.ErrConflict
)

type Store interface {
	Create(ctx context.Context, req *correction.Request) (domain.CorrectionID, error)
	Get(ctx context.Context, id domain.CorrectionID) (*correction.Request, error)
	List(ctx context.Context) ([]correction.Request, error)
	Update(ctx context.Context, req *correction.Request) error
}
