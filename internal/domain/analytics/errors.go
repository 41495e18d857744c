package analytics

import "errors"

var (
	ErrEmptyScope     = errors.New("scope has no users")
	ErrInvalidGroupBy = errors.New("group_by must be day, week or month")
	ErrInvalidRange   = errors.New("from must not be after to")
)
