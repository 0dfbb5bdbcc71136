// Package verify implements the claim verification gateway: an external
// chat-completion call with keyword parsing, a local fallback classifier,
// and a two-level response cache keyed by claim text.
package verify

import (
	"context"

	"github.com/truth-market/internal/config"
	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/storage"
)

// MinClaimLength is the shortest claim text accepted for verification.
const MinClaimLength = 10

// Verifier resolves a claim text to a verdict. Implementations must not let
// any error escape to the caller that prevents a verdict; the composed
// service always returns a result.
type Verifier interface {
	Verify(ctx context.Context, claim string) (*models.Verification, error)
}

// falling wraps a primary verifier with a fallback that absorbs its errors.
type falling struct {
	primary  Verifier
	fallback Verifier
}

func (f *falling) Verify(ctx context.Context, claim string) (*models.Verification, error) {
	if f.primary != nil {
		result, err := f.primary.Verify(ctx, claim)
		if err == nil {
			return result, nil
		}
		logging.FromContext(ctx).WithError(err).Warn("AI verification failed, using fallback classifier")
	}
	return f.fallback.Verify(ctx, claim)
}

// NewService composes the full verification gateway: Groq when an API key is
// configured, the fallback classifier otherwise and on any Groq failure, the
// whole thing behind the claim-text cache. cache may be nil to disable the
// Redis level.
func NewService(cfg config.VerifyConfig, cache *storage.CacheService) Verifier {
	var primary Verifier
	if cfg.APIKey != "" {
		primary = NewGroqVerifier(cfg)
	} else {
		logging.Warn("No verification API key configured, all claims use the fallback classifier")
	}

	chain := &falling{primary: primary, fallback: NewFallbackVerifier()}
	return NewCachedVerifier(chain, cache, cfg.CacheTTL)
}
