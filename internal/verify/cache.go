package verify

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/storage"
)

// CachedVerifier layers two caches over a Verifier: an in-process cache keyed
// by exact claim text, and optionally a shared Redis cache so repeated claims
// survive restarts and are shared across instances. Cached results are
// returned unchanged apart from the Cached flag.
type CachedVerifier struct {
	inner Verifier
	local *gocache.Cache
	redis *storage.CacheService
	ttl   time.Duration
}

// NewCachedVerifier wraps inner with the two cache levels. redis may be nil.
func NewCachedVerifier(inner Verifier, redis *storage.CacheService, ttl time.Duration) *CachedVerifier {
	return &CachedVerifier{
		inner: inner,
		local: gocache.New(ttl, 2*ttl),
		redis: redis,
		ttl:   ttl,
	}
}

// Verify returns a cached result when one exists, otherwise delegates to the
// inner verifier and populates both cache levels.
func (c *CachedVerifier) Verify(ctx context.Context, claim string) (*models.Verification, error) {
	logger := logging.FromContext(ctx)

	if hit, found := c.local.Get(claim); found {
		if result, ok := hit.(*models.Verification); ok {
			logger.Debug("Verification cache hit (local)")
			cached := *result
			cached.Cached = true
			return &cached, nil
		}
	}

	if c.redis != nil {
		var result models.Verification
		key := c.redis.GenerateVerificationKey(claim)
		found, err := c.redis.Get(ctx, key, &result)
		if err != nil {
			// Redis trouble is never fatal to verification
			logger.WithError(err).Warn("Verification cache read failed")
		} else if found {
			logger.Debug("Verification cache hit (redis)")
			c.local.Set(claim, &result, gocache.DefaultExpiration)
			result.Cached = true
			return &result, nil
		}
	}

	result, err := c.inner.Verify(ctx, claim)
	if err != nil {
		return nil, err
	}

	c.local.Set(claim, result, gocache.DefaultExpiration)
	if c.redis != nil {
		key := c.redis.GenerateVerificationKey(claim)
		if err := c.redis.SetWithTTL(ctx, key, result, c.ttl); err != nil {
			logger.WithError(err).Warn("Verification cache write failed")
		}
	}

	return result, nil
}
