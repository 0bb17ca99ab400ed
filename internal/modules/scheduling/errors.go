// README: Scheduling error values and input validation errors.
package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput  = errors.New("invalid scheduling input")
	ErrSearchAborted = errors.New("search aborted")
	ErrNodeLimit     = errors.New("node limit reached")
	ErrNotFound      = errors.New("batch not found")
	ErrBadRequest    = errors.New("bad request")
)

// ValidationError reports one malformed field. Index is the position of the
// offending record in its input list.
type ValidationError struct {
	Field  string
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s[%d]: %s", e.Field, e.Index, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field string, index int, format string, args ...any) error {
	return &ValidationError{Field: field, Index: index, Reason: fmt.Sprintf(format, args...)}
}
