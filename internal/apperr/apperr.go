// Package apperr classifies the errors the prerequisite engine returns so
// handlers can map them to response codes without string matching.
package apperr

import "errors"

// Not-found sentinels.
var (
	ErrPrerequisiteNotFound = errors.New("prerequisite not found")
	ErrCourseNotFound       = errors.New("course not found")
)

// ValidationError signals rejected input: a bad enum value, a self-loop, or
// an edge that would introduce a circular dependency.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidation returns a ValidationError with the given reason.
func NewValidation(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPrerequisiteNotFound) || errors.Is(err, ErrCourseNotFound)
}
