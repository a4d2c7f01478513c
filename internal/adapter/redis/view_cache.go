// Package rediscache mirrors committed views into Redis so hot
// frequency-capped viewers can be denied without a ledger round trip.
// The cache is populated only from committed impressions: it may
// undercount after a restart (the engine falls through to the ledger,
// which re-checks) but it never overcounts, so a cached denial is safe.
package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Views for one viewer/ad pair live in a sorted set scored by unix
// seconds. Pruning and counting happen in one Lua script so the check
// is atomic on the Redis side.
const recentViewsLua = `
local key = KEYS[1]
local cutoff = ARGV[1]

redis.call("ZREMRANGEBYSCORE", key, "-inf", "(" .. cutoff)
return redis.call("ZCARD", key)
`

// ViewCache implements port.ViewCache backed by go-redis.
type ViewCache struct {
	client *redis.Client
	script *redis.Script
}

// NewViewCache creates a cache with a pre-compiled Lua script.
func NewViewCache(client *redis.Client) *ViewCache {
	return &ViewCache{
		client: client,
		script: redis.NewScript(recentViewsLua),
	}
}

// NewViewCacheFromAddr connects to Redis at addr and verifies the
// connection with a short ping.
func NewViewCacheFromAddr(ctx context.Context, addr string) (*ViewCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewViewCache(client), nil
}

func viewKey(viewerID string, adID int64) string {
	return fmt.Sprintf("fc:%s:%d", viewerID, adID)
}

// RecentViews prunes entries older than the window and returns how many
// remain.
func (c *ViewCache) RecentViews(ctx context.Context, viewerID string, adID int64, window time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-window).Unix()
	res, err := c.script.Run(ctx, c.client,
		[]string{viewKey(viewerID, adID)}, cutoff).Int64()
	if err != nil {
		return 0, fmt.Errorf("recent views script: %w", err)
	}
	return res, nil
}

// RecordView adds one committed view and refreshes the key's TTL to the
// window length, so idle pairs expire on their own.
func (c *ViewCache) RecordView(ctx context.Context, viewerID string, adID int64, window time.Duration, now time.Time) error {
	key := viewKey(viewerID, adID)
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *ViewCache) Close() error {
	return c.client.Close()
}
