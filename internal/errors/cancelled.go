package errors

import "errors"

// SelectionCancelledError is returned when the user quits the interactive picker.
type SelectionCancelledError struct {
	Reason string
}

func (e *SelectionCancelledError) Error() string {
	return e.Reason
}

// NewSelectionCancelledError creates a SelectionCancelledError with the provided reason.
func NewSelectionCancelledError(reason string) *SelectionCancelledError {
	return &SelectionCancelledError{Reason: reason}
}

// IsSelectionCancelled reports whether err is a SelectionCancelledError (even when wrapped).
func IsSelectionCancelled(err error) bool {
	var cancelled *SelectionCancelledError
	return errors.As(err, &cancelled)
}
