package domain

import (
	"errors"
	"fmt"
)

// ─── Error Kinds ────────────────────────────────────────────────────────────
// Action-level errors (Validation, InvalidState, NotFound) are returned
// synchronously to the caller. Integrity and migration problems are handled
// internally with logging plus safe-default substitution.

// ValidationError reports bad input to an action. Rule names the violated
// precondition.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Message)
}

// NewValidation builds a ValidationError for the named rule.
func NewValidation(rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// InvalidStateError reports an action attempted from a state that forbids it.
type InvalidStateError struct {
	Action string
	State  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s from state %q", e.Action, e.State)
}

// NotFoundError reports an operation on an unknown id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IntegrityError reports a normalized-state shape invariant violation. It is
// raised by the structural validator, logged, and auto-repaired with safe
// defaults, never thrown to callers.
type IntegrityError struct {
	Section string
	Detail  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s: %s", e.Section, e.Detail)
}

// MigrationError reports a failed migration step. The raw persisted blob is
// preserved and the engine falls back to defaults rather than dropping data
// silently.
type MigrationError struct {
	FromVersion int
	Err         error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration from version %d failed: %v", e.FromVersion, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// ─── Kind Checks ────────────────────────────────────────────────────────────

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsInvalidState reports whether err is an InvalidStateError.
func IsInvalidState(err error) bool {
	var v *InvalidStateError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}
