package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	catalogdomain "carbon-tracker-go/internal/domain/catalog"
)

// CatalogCache is the process-local catalog cache used when redis is
// disabled.
type CatalogCache struct {
	mu            sync.RWMutex
	activityTypes catalogItem[catalogdomain.ActivityType]
	units         catalogItem[catalogdomain.Unit]
	now           func() time.Time
}

type catalogItem[T any] struct {
	value     []T
	expiresAt time.Time
}

func NewCatalogCache() *CatalogCache {
	return &CatalogCache{now: time.Now}
}

func (c *CatalogCache) GetActivityTypes(context.Context) ([]catalogdomain.ActivityType, bool, error) {
	c.mu.RLock()
	item := c.activityTypes
	c.mu.RUnlock()

	if item.value == nil || !item.expiresAt.After(c.now()) {
		return nil, false, nil
	}
	return cloneActivityTypes(item.value), true, nil
}

func (c *CatalogCache) SetActivityTypes(_ context.Context, items []catalogdomain.ActivityType, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		c.activityTypes = catalogItem[catalogdomain.ActivityType]{}
		return nil
	}
	c.activityTypes = catalogItem[catalogdomain.ActivityType]{
		value:     cloneActivityTypes(items),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *CatalogCache) GetUnits(context.Context) ([]catalogdomain.Unit, bool, error) {
	c.mu.RLock()
	item := c.units
	c.mu.RUnlock()

	if item.value == nil || !item.expiresAt.After(c.now()) {
		return nil, false, nil
	}
	return slices.Clone(item.value), true, nil
}

func (c *CatalogCache) SetUnits(_ context.Context, items []catalogdomain.Unit, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		c.units = catalogItem[catalogdomain.Unit]{}
		return nil
	}
	value := slices.Clone(items)
	if value == nil {
		value = []catalogdomain.Unit{}
	}
	c.units = catalogItem[catalogdomain.Unit]{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *CatalogCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.activityTypes = catalogItem[catalogdomain.ActivityType]{}
	c.units = catalogItem[catalogdomain.Unit]{}
	c.mu.Unlock()
	return nil
}

func cloneActivityTypes(items []catalogdomain.ActivityType) []catalogdomain.ActivityType {
	cloned := make([]catalogdomain.ActivityType, len(items))
	for i := range items {
		cloned[i] = items[i]
		if items[i].Description != nil {
			description := *items[i].Description
			cloned[i].Description = &description
		}
	}
	return cloned
}
