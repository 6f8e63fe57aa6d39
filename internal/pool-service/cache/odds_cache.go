package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

func keyMatch(matchID string) string { return "pool:odds:" + matchID }

func (c *Cache) GetOdds(ctx context.Context, matchID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyMatch(matchID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) SetOdds(ctx context.Context, matchID string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyMatch(matchID), b, ttl).Err()
}

// Invalidate remove o snapshot após liquidação do pool
func (c *Cache) Invalidate(ctx context.Context, matchID string) error {
	return c.R.Del(ctx, keyMatch(matchID)).Err()
}
