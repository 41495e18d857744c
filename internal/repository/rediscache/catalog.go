package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogdomain "carbon-tracker-go/internal/domain/catalog"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

const (
	activityTypesKey = "catalog:activity_types"
	unitsKey         = "catalog:units"
)

// CatalogCache keeps the catalog lists in redis as JSON documents.
type CatalogCache struct {
	client redis.Cmdable
}

func NewCatalogCache(client redis.Cmdable) *CatalogCache {
	return &CatalogCache{client: client}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *CatalogCache) GetActivityTypes(ctx context.Context) ([]catalogdomain.ActivityType, bool, error) {
	var items []catalogdomain.ActivityType
	ok, err := c.get(ctx, activityTypesKey, &items)
	return items, ok, err
}

func (c *CatalogCache) SetActivityTypes(ctx context.Context, items []catalogdomain.ActivityType, ttl time.Duration) error {
	return c.set(ctx, activityTypesKey, items, ttl)
}

func (c *CatalogCache) GetUnits(ctx context.Context) ([]catalogdomain.Unit, bool, error) {
	var items []catalogdomain.Unit
	ok, err := c.get(ctx, unitsKey, &items)
	return items, ok, err
}

func (c *CatalogCache) SetUnits(ctx context.Context, items []catalogdomain.Unit, ttl time.Duration) error {
	return c.set(ctx, unitsKey, items, ttl)
}

func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activityTypesKey, unitsKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

func (c *CatalogCache) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *CatalogCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
