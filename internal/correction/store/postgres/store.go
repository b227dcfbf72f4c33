package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"maternidad/internal/correction"
	"maternidad/internal/correction/store"
	"maternidad/pkg/domain"
)

// Store persists correction requests in PostgreSQL.
//
// Expected schema:
//
//	solicitudes_correccion (
//	    id bigserial primary key,
//	    registro_id bigint not null,
//	    solicitado_por uuid null,
//	    resuelto_por uuid null,
//	    mensaje text not null,
//	    estado text not null,
//	    fecha_creacion timestamptz not null,
//	    fecha_resolucion timestamptz null
//	)
//	create unique index solicitudes_correccion_pendiente_uniq
//	    on solicitudes_correccion (registro_id) where estado = 'pendiente';
//
// The partial unique index makes the single-pending-per-target check atomic
// with the insert.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const pqUniqueViolation = "23505"

func (s *Store) Create(ctx context.Context, req *correction.Request) (domain.CorrectionID, error) {
	query := `
		INSERT INTO solicitudes_correccion
			(registro_id, solicitado_por, mensaje, estado, fecha_creacion)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		int64(req.TargetID), userValue(req.RequestedBy), req.Message, string(req.State), req.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return 0, store.ErrDuplicatePending
		}
		return 0, fmt.Errorf("insert correction request: %w", err)
	}
	req.ID = domain.CorrectionID(id)
	return req.ID, nil
}

func (s *Store) Get(ctx context.Context, id domain.CorrectionID) (*correction.Request, error) {
	query := `
		SELECT id, registro_id, solicitado_por, resuelto_por, mensaje, estado, fecha_creacion, fecha_resolucion
		FROM solicitudes_correccion WHERE id = $1
	`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get correction request: %w", err)
	}
	return req, nil
}

func (s *Store) List(ctx context.Context) ([]correction.Request, error) {
	query := `
		SELECT id, registro_id, solicitado_por, resuelto_por, mensaje, estado, fecha_creacion, fecha_resolucion
		FROM solicitudes_correccion ORDER BY id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list correction requests: %w", err)
	}
	defer rows.Close()

	var out []correction.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan correction request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, req *correction.Request) error {
	query := `
		UPDATE solicitudes_correccion
		SET resuelto_por = $2, estado = $3, fecha_resolucion = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		int64(req.ID), userValue(req.ResolvedBy), string(req.State), req.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update correction request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update correction request: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*correction.Request, error) {
	var (
		req         correction.Request
		requestedBy *uuid.UUID
		resolvedBy  *uuid.UUID
		state       string
		resolvedAt  *time.Time
	)
	err := row.Scan(&req.ID, &req.TargetID, &requestedBy, &resolvedBy, &req.Message, &state, &req.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	req.State = correction.State(state)
	req.ResolvedAt = resolvedAt
	if requestedBy != nil {
		userID := domain.UserID(*requestedBy)
		req.RequestedBy = &userID
	}
	if resolvedBy != nil {
		userID := domain.UserID(*resolvedBy)
		req.ResolvedBy = &userID
	}
	return &req, nil
}

func userValue(id *domain.UserID) any {
	if id == nil {
		return nil
	}
	return uuid.UUID(*id)
}
