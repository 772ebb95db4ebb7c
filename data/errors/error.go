package errors

import (
	"fmt"
)

// newError wraps sentinel with a formatted context message so callers
// can still match the sentinel with errors.Is.
func newError(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// newCausedError is like newError but also wraps the underlying cause.
func newCausedError(sentinel, cause error, format string, args ...any) error {
	if cause == nil {
		return newError(sentinel, format, args...)
	}

	return fmt.Errorf("%w: %s: %w", sentinel, fmt.Sprintf(format, args...), cause)
}
