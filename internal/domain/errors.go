package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds the API boundary translates to
// HTTP responses. Services wrap them with %w so errors.Is keeps working
// through the call chain.
var (
	ErrValidation          = errors.New("validation")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrInvalidState        = errors.New("invalid_state")
	ErrConflict            = errors.New("conflict")
	ErrConcurrencyConflict = errors.New("concurrency_conflict")
	ErrNotFound            = errors.New("not_found")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func InvalidTransitionf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidTransition)...)
}

func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidState)...)
}

func Conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// ErrorKind returns the stable kind string for a domain error, or "internal"
// for anything outside the taxonomy.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
