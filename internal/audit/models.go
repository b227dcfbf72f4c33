// Package audit is the append-only clinical event log: who did what to which
// entity. Entries reference their subject through a closed type tag plus an
// opaque numeric id, so they stay readable after the subject row is deleted.
package audit

import (
	"fmt"
	"time"

	"maternidad/pkg/domain"
)

// ActionKind enumerates the audited operations. Values match the wire/report
// vocabulary of the ward's existing tooling.
type ActionKind string

const (
	ActionCreate              ActionKind = "creacion"
	ActionUpdate              ActionKind = "modificacion"
	ActionDelete              ActionKind = "eliminacion"
	ActionCorrectionRequested ActionKind = "solicitud"
	ActionCorrectionResolved  ActionKind = "resolucion"
	ActionReportGenerated     ActionKind = "reporte"
)

// SubjectType is the closed union of entity kinds an entry can refer to.
type SubjectType string

const (
	SubjectMother     SubjectType = "madre"
	SubjectDelivery   SubjectType = "parto"
	SubjectNewborn    SubjectType = "recien_nacido"
	SubjectDeath      SubjectType = "defuncion"
	SubjectCorrection SubjectType = "solicitud_correccion"
	SubjectReport     SubjectType = "reporte_rem"
)

// Entry is one immutable action log record. Actor is nullable because the
// account may be deleted after the fact; ActorName is denormalized so the
// trail stays human-readable regardless.
type Entry struct {
	ID          int64              `json:"id"`
	Actor       *domain.UserID     `json:"usuario,omitempty"`
	ActorName   string             `json:"usuario_nombre,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Action      ActionKind         `json:"accion"`
	SubjectType SubjectType        `json:"tipo_objeto"`
	SubjectID   int64              `json:"objeto_id"`
	Details     string             `json:"detalles"`
}

// SessionEventKind enumerates authentication transitions.
type SessionEventKind string

const (
	SessionLogin  SessionEventKind = "login"
	SessionLogout SessionEventKind = "logout"
)

// SessionEntry is one immutable login/logout record.
type SessionEntry struct {
	ID         int64            `json:"id"`
	Actor      *domain.UserID   `json:"usuario,omitempty"`
	ActorName  string           `json:"usuario_nombre,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	Event      SessionEventKind `json:"accion"`
	OriginAddr string           `json:"ip_address,omitempty"`
}

// Filter narrows List queries. Zero values mean "any".
type Filter struct {
	SubjectType SubjectType
	SubjectID   int64
	Actor       *domain.UserID
	Limit       int
}

// Auditable is the capability every audited entity implements: a type tag,
// an opaque numeric id, and a human-readable description. This replaces
// runtime type introspection with a closed, compile-checked union.
type Auditable interface {
	SubjectType() SubjectType
	SubjectID() int64
	fmt.Stringer
}

// Snapshot captures an entity's identity and description at a point in time.
// It must be taken before a delete so the log entry survives the row.
type Snapshot struct {
	Type        SubjectType
	ID          int64
	Description string
}

// Take snapshots an auditable entity.
func Take(e Auditable) Snapshot {
	return Snapshot{Type: e.SubjectType(), ID: e.SubjectID(), Description: e.String()}
}
