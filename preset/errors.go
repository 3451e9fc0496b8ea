package preset

import (
	"errors"
	"fmt"
)

// Common preset errors.
var (
	// ErrNotFound is returned when no preset carries the requested id.
	ErrNotFound = errors.New("preset not found")
	// ErrBuiltinProtected is returned for deletion attempts on built-in
	// presets. Built-ins stay editable; only deletion is blocked.
	ErrBuiltinProtected = errors.New("built-in presets cannot be deleted")
	// ErrDeleteDeclined is returned when the user declined the deletion
	// confirmation; nothing was changed or persisted.
	ErrDeleteDeclined = errors.New("deletion declined")
)

// ValidationError reports a local precondition failure. It is surfaced to
// the user and never sent to the host.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// FormatError reports a malformed imported document. The import aborts and
// the existing collection stays untouched.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid preset document: %s", e.Reason)
}
