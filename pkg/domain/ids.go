// Package domain holds the typed identifiers and actor identity shared by
// every layer. Typed IDs prevent cross-entity assignment at compile time.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "maternidad/pkg/domain-errors"
)

// UserID identifies an account holder (clinician, supervisor, admin).
// Accounts live in the external identity layer; the core only carries the
// reference so audit entries survive account deletion.
type UserID uuid.UUID

func (u UserID) IsNil() bool    { return uuid.UUID(u) == uuid.Nil }
func (u UserID) String() string { return uuid.UUID(u).String() }

// ParseUserID validates and converts a string into a UserID.
// Rejects empty input, malformed UUIDs, and the nil UUID.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user id must not be the nil UUID")
	}
	return UserID(parsed), nil
}

// Clinical entities keep serial numeric keys. The audit log refers to them
// through an opaque int64 so entries remain readable after the row is gone.
type (
	MotherID     int64
	DeliveryID   int64
	NewbornID    int64
	DeathID      int64
	CorrectionID int64
)

func parseSerialID(s, what string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" must be a positive integer")
	}
	return n, nil
}

func ParseMotherID(s string) (MotherID, error) {
	n, err := parseSerialID(s, "mother id")
	return MotherID(n), err
}

func ParseDeliveryID(s string) (DeliveryID, error) {
	n, err := parseSerialID(s, "delivery id")
	return DeliveryID(n), err
}

func ParseNewbornID(s string) (NewbornID, error) {
	n, err := parseSerialID(s, "newborn id")
	return NewbornID(n), err
}

func ParseDeathID(s string) (DeathID, error) {
	n, err := parseSerialID(s, "death id")
	return DeathID(n), err
}

func ParseCorrectionID(s string) (CorrectionID, error) {
	n, err := parseSerialID(s, "correction id")
	return CorrectionID(n), err
}
