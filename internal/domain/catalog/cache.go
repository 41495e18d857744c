package catalog

import (
	"context"
	"time"
)

// Cache stores the catalog lists. A miss is (nil, false, nil); errors are
// reported so the service can log them and read through.
type Cache interface {
	GetActivityTypes(ctx context.Context) ([]ActivityType, bool, error)
	SetActivityTypes(ctx context.Context, items []ActivityType, ttl time.Duration) error
	GetUnits(ctx context.Context) ([]Unit, bool, error)
	SetUnits(ctx context.Context, items []Unit, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type noopCache struct{}

func (noopCache) GetActivityTypes(context.Context) ([]ActivityType, bool, error) {
	return nil, false, nil
}

func (noopCache) SetActivityTypes(context.Context, []ActivityType, time.Duration) error {
	return nil
}

func (noopCache) GetUnits(context.Context) ([]Unit, bool, error) {
	return nil, false, nil
}

func (noopCache) SetUnits(context.Context, []Unit, time.Duration) error {
	return nil
}

func (noopCache) Invalidate(context.Context) error {
	return nil
}
