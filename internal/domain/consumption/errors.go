package consumption

import (
	"errors"
	"fmt"
)

var (
	ErrConsumptionNotFound = errors.New("consumption not found")
	ErrEmptyPatch          = errors.New("patch has no fields")
)

// ValidationError reports a missing or malformed caller parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamQueryError wraps a failed store call together with the query
// context it was issued with.
type UpstreamQueryError struct {
	Table   string
	Filters Filters
	Err     error
}

func (e *UpstreamQueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Table, e.Err)
}

func (e *UpstreamQueryError) Unwrap() error {
	return e.Err
}

// TransformError is returned when a stored row cannot be projected into a
// Consumption. The whole page fails with it.
type TransformError struct {
	RowID int64
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform row %d: %v", e.RowID, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
