package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ThumbCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewThumbCache(rdb, ttl), mr
}

func TestThumbCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "flowchart TD\n  A-->B", "default", "TB")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "flowchart TD\n  A-->B", "default", "TB", "<svg>thumb</svg>"))

	svg, ok, err := c.Get(ctx, "flowchart TD\n  A-->B", "default", "TB")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "<svg>thumb</svg>", svg)
}

func TestThumbCacheKeyedByInputs(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "flowchart TD", "default", "TB", "<svg>a</svg>"))

	// edited source, different theme or hint must all miss
	for _, tc := range [][3]string{
		{"flowchart LR", "default", "TB"},
		{"flowchart TD", "dark", "TB"},
		{"flowchart TD", "default", "LR"},
	} {
		_, ok, err := c.Get(ctx, tc[0], tc[1], tc[2])
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestThumbCacheExpires(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "flowchart TD", "default", "TB", "<svg/>"))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "flowchart TD", "default", "TB")
	require.NoError(t, err)
	require.False(t, ok)
}
