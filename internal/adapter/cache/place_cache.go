// internal/adapter/cache/place_cache.go

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"locbook/internal/domain/place"
	"locbook/internal/metrics"
)

const keyPrefix = "locbook:place:"

// PlaceCache caches hydrated places in Redis. A nil client turns every
// call into a no-op miss.
type PlaceCache struct {
	rc  *redis.Client
	ttl time.Duration
}

// Open returns a Redis client for addr, or nil when addr is empty
func Open(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// NewPlaceCache creates a new place cache
func NewPlaceCache(rc *redis.Client, ttl time.Duration) *PlaceCache {
	return &PlaceCache{
		rc:  rc,
		ttl: ttl,
	}
}

func key(id string) string {
	return keyPrefix + id
}

// Get returns the cached place and whether it was found
func (c *PlaceCache) Get(ctx context.Context, id string) (*place.Place, bool, error) {
	if c == nil || c.rc == nil {
		return nil, false, nil
	}

	data, err := c.rc.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheLookup("miss")
			return nil, false, nil
		}
		metrics.RecordCacheLookup("error")
		return nil, false, fmt.Errorf("error reading place cache: %w", err)
	}

	var p place.Place
	if err := json.Unmarshal(data, &p); err != nil {
		metrics.RecordCacheLookup("error")
		return nil, false, fmt.Errorf("error unmarshaling cached place: %w", err)
	}

	metrics.RecordCacheLookup("hit")
	return &p, true, nil
}

// Set stores a hydrated place
func (c *PlaceCache) Set(ctx context.Context, p place.Place) error {
	if c == nil || c.rc == nil {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("error marshaling place: %w", err)
	}
	if err := c.rc.Set(ctx, key(p.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("error writing place cache: %w", err)
	}
	return nil
}

// Delete drops a cached place
func (c *PlaceCache) Delete(ctx context.Context, id string) error {
	if c == nil || c.rc == nil {
		return nil
	}
	if err := c.rc.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("error deleting cached place: %w", err)
	}
	return nil
}
