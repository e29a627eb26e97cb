package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("catalog: cache miss")

// Cache stores item snapshots keyed by item id.
type Cache interface {
	Get(ctx context.Context, itemID string) (*Snapshot, error)
	Set(ctx context.Context, itemID string, snap *Snapshot) error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns a Cache backed by the given Redis address.
func NewRedisCache(addr string, ttl time.Duration) Cache {
	return &redisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (c *redisCache) Get(ctx context.Context, itemID string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, cacheKey(itemID)).Result()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// Unparsable cache entries are treated as misses so a bad write
		// can never wedge an item.
		return nil, ErrCacheMiss
	}
	return &snap, nil
}

func (c *redisCache) Set(ctx context.Context, itemID string, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(itemID), raw, c.ttl).Err()
}

func cacheKey(itemID string) string {
	return fmt.Sprintf("catalog:snapshot:%s", itemID)
}
