package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ViewCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewViewCache(client), mr
}

func TestRecordAndCount(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	count, err := cache.RecentViews(ctx, "viewer", 10, window, now)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)

	require.NoError(t, cache.RecordView(ctx, "viewer", 10, window, now))
	require.NoError(t, cache.RecordView(ctx, "viewer", 10, window, now.Add(time.Hour)))

	count, err = cache.RecentViews(ctx, "viewer", 10, window, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestWindowPruning(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	require.NoError(t, cache.RecordView(ctx, "viewer", 10, window, now))
	require.NoError(t, cache.RecordView(ctx, "viewer", 10, window, now.Add(23*time.Hour)))

	// first view has slid out of the window, second is still inside
	count, err := cache.RecentViews(ctx, "viewer", 10, window, now.Add(25*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestPairsAreIndependent(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	window := time.Hour

	require.NoError(t, cache.RecordView(ctx, "viewer-a", 10, window, now))

	count, err := cache.RecentViews(ctx, "viewer-b", 10, window, now)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)

	count, err = cache.RecentViews(ctx, "viewer-a", 20, window, now)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}

func TestKeyExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	window := time.Hour

	require.NoError(t, cache.RecordView(ctx, "viewer", 10, window, now))
	mr.FastForward(2 * time.Hour)

	count, err := cache.RecentViews(ctx, "viewer", 10, window, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}
