package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"maternidad/internal/audit"
	"maternidad/pkg/domain"
)

// Store persists audit and session entries in PostgreSQL.
//
// Expected schema:
//
//	historial_acciones (
//	    id bigserial primary key,
//	    usuario_id uuid null,
//	    usuario_nombre text not null default '',
//	    timestamp timestamptz not null,
//	    accion text not null,
//	    tipo_objeto text not null,
//	    objeto_id bigint not null,
//	    detalles text not null default ''
//	)
//
//	historial_sesiones (
//	    id bigserial primary key,
//	    usuario_id uuid null,
//	    usuario_nombre text not null default '',
//	    timestamp timestamptz not null,
//	    accion text not null,
//	    ip_address text null
//	)
//
// Rows are never updated or deleted by the application.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) (int64, error) {
	query := `
		INSERT INTO historial_acciones
			(usuario_id, usuario_nombre, timestamp, accion, tipo_objeto, objeto_id, detalles)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		actorValue(entry.Actor),
		entry.ActorName,
		entry.Timestamp,
		string(entry.Action),
		string(entry.SubjectType),
		entry.SubjectID,
		entry.Details,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return id, nil
}

func (s *Store) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	query := `
		SELECT id, usuario_id, usuario_nombre, timestamp, accion, tipo_objeto, objeto_id, detalles
		FROM historial_acciones
		WHERE 1=1
	`
	var args []any
	if filter.SubjectType != "" {
		args = append(args, string(filter.SubjectType))
		query += " AND tipo_objeto = $" + strconv.Itoa(len(args))
	}
	if filter.SubjectID != 0 {
		args = append(args, filter.SubjectID)
		query += " AND objeto_id = $" + strconv.Itoa(len(args))
	}
	if filter.Actor != nil {
		args = append(args, uuid.UUID(*filter.Actor))
		query += " AND usuario_id = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry   audit.Entry
			actorID *uuid.UUID
			action  string
			subject string
		)
		if err := rows.Scan(&entry.ID, &actorID, &entry.ActorName, &entry.Timestamp,
			&action, &subject, &entry.SubjectID, &entry.Details); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = audit.ActionKind(action)
		entry.SubjectType = audit.SubjectType(subject)
		if actorID != nil {
			userID := domain.UserID(*actorID)
			entry.Actor = &userID
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func (s *Store) AppendSession(ctx context.Context, entry audit.SessionEntry) (int64, error) {
	query := `
		INSERT INTO historial_sesiones
			(usuario_id, usuario_nombre, timestamp, accion, ip_address)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		actorValue(entry.Actor),
		entry.ActorName,
		entry.Timestamp,
		string(entry.Event),
		entry.OriginAddr,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert session entry: %w", err)
	}
	return id, nil
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]audit.SessionEntry, error) {
	query := `
		SELECT id, usuario_id, usuario_nombre, timestamp, accion, COALESCE(ip_address, '')
		FROM historial_sesiones
		ORDER BY timestamp DESC, id DESC
	`
	var args []any
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $1"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.SessionEntry
	for rows.Next() {
		var (
			entry   audit.SessionEntry
			actorID *uuid.UUID
			event   string
		)
		if err := rows.Scan(&entry.ID, &actorID, &entry.ActorName, &entry.Timestamp,
			&event, &entry.OriginAddr); err != nil {
			return nil, fmt.Errorf("scan session entry: %w", err)
		}
		entry.Event = audit.SessionEventKind(event)
		if actorID != nil {
			userID := domain.UserID(*actorID)
			entry.Actor = &userID
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session entries: %w", err)
	}
	return entries, nil
}

func actorValue(actor *domain.UserID) any {
	if actor == nil {
		return nil
	}
	return uuid.UUID(*actor)
}
