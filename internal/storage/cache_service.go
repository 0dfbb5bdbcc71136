package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService provides JSON caching on top of Redis for verification results
// and aggregate marketplace stats.
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyVerification is for claim verification results
	CacheKeyVerification CacheKeyType = "verify"
	// CacheKeyStats is for aggregate marketplace stats
	CacheKeyStats CacheKeyType = "stats"
	// CacheKeyLeaderboard is for the buyer leaderboard
	CacheKeyLeaderboard CacheKeyType = "leaderboard"
)

// GenerateCacheKey generates a cache key for a given type and parameters.
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	parts := append([]string{string(keyType)}, params...)
	return strings.Join(parts, ":")
}

// GenerateVerificationKey generates a cache key for a claim verification.
// Claim text is hashed so arbitrary user text never leaks into key space.
// Format: verify:<sha256-of-normalized-claim>
func (c *CacheService) GenerateVerificationKey(claimText string) string {
	normalized := strings.ToLower(strings.TrimSpace(claimText))
	sum := sha256.Sum256([]byte(normalized))
	return c.GenerateCacheKey(CacheKeyVerification, hex.EncodeToString(sum[:]))
}

// GenerateStatsKey generates a cache key for marketplace stats
func (c *CacheService) GenerateStatsKey() string {
	return c.GenerateCacheKey(CacheKeyStats, "marketplace")
}

// GenerateLeaderboardKey generates a cache key for the buyer leaderboard
func (c *CacheService) GenerateLeaderboardKey(limit int) string {
	return c.GenerateCacheKey(CacheKeyLeaderboard, fmt.Sprintf("top%d", limit))
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with a custom TTL
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redis.Set(ctx, key, data, ttl)
}

// Get retrieves a value from cache and deserializes it. A missing key is a
// cache miss, not an error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return true, nil
}

// Invalidate removes one or more keys from cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...)
}

// GetTTL returns the configured TTL for this cache service
func (c *CacheService) GetTTL() time.Duration {
	return c.ttl
}
