package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheKeyNormalisesEmptyParts(t *testing.T) {
	assert.Equal(t, "listing:students:_:_", Key("listing", "students", "", ""))
}

func TestCacheServiceHitMissAndInvalidate(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, 0, zap.NewNop(), true)
	ctx := context.Background()

	var dest []string
	hit, err := cache.Get(ctx, "listing:schools:_", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "listing:schools:_", []string{"SMA1"}, 0))
	hit, err = cache.Get(ctx, "listing:schools:_", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"SMA1"}, dest)

	require.NoError(t, cache.Invalidate(ctx, "listing:schools:*"))
	hit, err = cache.Get(ctx, "listing:schools:_", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.cacheMisses))
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())

	cache := NewCacheService(newMemoryCacheRepo(), nil, 0, nil, false)
	require.NoError(t, cache.Set(context.Background(), "k", 1, 0))
	var dest int
	hit, err := cache.Get(context.Background(), "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}
