// Package correction implements the clinical record correction workflow: a
// two-state machine (PENDING then RESOLVED, terminal) with at most one
// pending request per target record.
package correction

import (
	"fmt"
	"strings"
	"time"

	"maternidad/internal/audit"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
)

// State of a correction request. There is no backward transition and no
// reopening.
type State string

const (
	StatePending  State = "pendiente"
	StateResolved State = "resuelta"
)

// Request is one correction request against a delivery record. The request
// owns its own row independent of the record it targets; the target may be
// edited or deleted while the request is open.
type Request struct {
	ID          domain.CorrectionID `json:"id"`
	TargetID    domain.DeliveryID   `json:"registro"`
	RequestedBy *domain.UserID      `json:"solicitado_por,omitempty"`
	ResolvedBy  *domain.UserID      `json:"resuelto_por,omitempty"`
	Message     string              `json:"mensaje"`
	State       State               `json:"estado"`
	CreatedAt   time.Time           `json:"fecha_creacion"`
	ResolvedAt  *time.Time          `json:"fecha_resolucion,omitempty"`
}

// NewRequest builds a pending request. The duplicate-pending check belongs
// to the store, where it can be atomic with the insert.
func NewRequest(target domain.DeliveryID, requestedBy domain.Actor, message string, now time.Time) (*Request, error) {
	message = strings.TrimSpace(message)
	if target == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "correction request requires a target record")
	}
	if message == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "correction request message cannot be empty")
	}
	req := &Request{
		TargetID:  target,
		Message:   message,
		State:     StatePending,
		CreatedAt: now,
	}
	if !requestedBy.ID.IsNil() {
		actorID := requestedBy.ID
		req.RequestedBy = &actorID
	}
	return req, nil
}

// CanResolve reports whether the request accepts the resolve transition.
func (r *Request) CanResolve() error {
	if r.State != StatePending {
		return dErrors.New(dErrors.CodeInvariantViolation, "correction request is already resolved")
	}
	return nil
}

// Resolve applies the one-way transition. Callers check CanResolve first;
// Resolve revalidates so a racing caller cannot resolve twice.
func (r *Request) Resolve(resolvedBy domain.Actor, at time.Time) error {
	if err := r.CanResolve(); err != nil {
		return err
	}
	r.State = StateResolved
	r.ResolvedAt = &at
	if !resolvedBy.ID.IsNil() {
		actorID := resolvedBy.ID
		r.ResolvedBy = &actorID
	}
	return nil
}

func (r *Request) SubjectType() audit.SubjectType { return audit.SubjectCorrection }
func (r *Request) SubjectID() int64               { return int64(r.ID) }
func (r *Request) String() string {
	return fmt.Sprintf("Solicitud de corrección %d sobre parto %d", r.ID, r.TargetID)
}
