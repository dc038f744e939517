package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these so the HTTP layer can map
// them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrBusinessRule       = errors.New("business rule violation")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrValidation         = errors.New("validation failed")
)

var (
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrEquipmentNotFound = fmt.Errorf("equipment %w", ErrNotFound)

	ErrUserExists         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrSerialNumberInUse = fmt.Errorf("%w: serial number already in use", ErrBusinessRule)
	ErrSelfLockout       = fmt.Errorf("%w: cannot remove MASTER from your own account", ErrBusinessRule)
	ErrConcurrentUpdate  = fmt.Errorf("%w: equipment was modified concurrently", ErrBusinessRule)

	ErrExclusiveRole = fmt.Errorf("%w: MASTER user cannot hold other roles", ErrInvariantViolation)
	ErrEmptyRoleSet  = fmt.Errorf("%w: user must hold at least one role", ErrInvariantViolation)

	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrExpiredToken = fmt.Errorf("%w: token expired", ErrUnauthenticated)
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Unwrap lets callers match any ValidationError against ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func invalid(field, reason string) error { return NewValidationError(field, reason) }
