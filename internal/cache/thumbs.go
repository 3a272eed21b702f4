// Package cache stores rendered thumbnail SVGs in Redis. Keys are content
// hashes, so a stale entry can never be served for edited source and no
// invalidation pass is needed; expired entries simply age out.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultThumbTTL = 24 * time.Hour

type ThumbCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewThumbCache(rdb *redis.Client, ttl time.Duration) *ThumbCache {
	if ttl <= 0 {
		ttl = DefaultThumbTTL
	}
	return &ThumbCache{rdb: rdb, ttl: ttl}
}

func thumbKey(source, theme, directionHint string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + theme + "\x00" + directionHint))
	return "thumb:" + hex.EncodeToString(sum[:])
}

// Get returns the cached SVG and whether it was present.
func (c *ThumbCache) Get(ctx context.Context, source, theme, directionHint string) (string, bool, error) {
	svg, err := c.rdb.Get(ctx, thumbKey(source, theme, directionHint)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("thumb cache get: %w", err)
	}
	return svg, true, nil
}

func (c *ThumbCache) Set(ctx context.Context, source, theme, directionHint, svg string) error {
	if err := c.rdb.Set(ctx, thumbKey(source, theme, directionHint), svg, c.ttl).Err(); err != nil {
		return fmt.Errorf("thumb cache set: %w", err)
	}
	return nil
}
