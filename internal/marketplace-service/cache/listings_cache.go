package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeKey = "market:listings:active"

// Cache guarda a página de listings ativas no Redis.
type Cache struct {
	R *redis.Client
}

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func (c *Cache) GetActive(ctx context.Context, out any) (bool, error) {
	b, err := c.R.Get(ctx, activeKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, out)
}

func (c *Cache) SetActive(ctx context.Context, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, activeKey, b, ttl).Err()
}

// Invalidate remove a página cacheada; chamado em toda mutação de listing.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.R.Del(ctx, activeKey).Err()
}
