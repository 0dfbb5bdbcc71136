package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/types"
)

func newTestCacheService(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheService(NewRedisCacheFromClient(client), time.Minute), mr
}

func TestCacheServiceRoundTrip(t *testing.T) {
	cache, _ := newTestCacheService(t)
	ctx := context.Background()

	stored := &models.Verification{
		Verdict:    types.VerdictTrue,
		Confidence: 98,
		Reasoning:  "standard pressure",
		Verifier:   "test",
		Timestamp:  time.Now().UTC().Truncate(time.Second),
	}

	key := cache.GenerateVerificationKey("Water boils at 100°C at sea level")
	require.NoError(t, cache.Set(ctx, key, stored))

	var loaded models.Verification
	found, err := cache.Get(ctx, key, &loaded)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, stored.Verdict, loaded.Verdict)
	assert.Equal(t, stored.Confidence, loaded.Confidence)
	assert.Equal(t, stored.Reasoning, loaded.Reasoning)
}

func TestCacheServiceMiss(t *testing.T) {
	cache, _ := newTestCacheService(t)

	var loaded models.Verification
	found, err := cache.Get(context.Background(), "verify:nothing", &loaded)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheServiceExpiry(t *testing.T) {
	cache, mr := newTestCacheService(t)
	ctx := context.Background()

	key := cache.GenerateStatsKey()
	require.NoError(t, cache.SetWithTTL(ctx, key, &SaleStats{TotalSales: 3}, time.Second))

	mr.FastForward(2 * time.Second)

	var loaded SaleStats
	found, err := cache.Get(ctx, key, &loaded)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestVerificationKeyNormalization(t *testing.T) {
	cache, _ := newTestCacheService(t)

	a := cache.GenerateVerificationKey("Water boils at 100°C")
	b := cache.GenerateVerificationKey("  water BOILS at 100°c  ")
	c := cache.GenerateVerificationKey("a different claim entirely")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCacheServiceInvalidate(t *testing.T) {
	cache, _ := newTestCacheService(t)
	ctx := context.Background()

	key := cache.GenerateLeaderboardKey(10)
	require.NoError(t, cache.Set(ctx, key, []string{"0.0.1001"}))
	require.NoError(t, cache.Invalidate(ctx, key))

	var loaded []string
	found, err := cache.Get(ctx, key, &loaded)
	require.NoError(t, err)
	assert.False(t, found)
}
