package catalog

import "errors"

var (
	ErrActivityTypeNotFound = errors.New("activity type not found")
	ErrUnitNotFound         = errors.New("unit not found")
)
