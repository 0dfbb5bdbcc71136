package verify

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/types"
)

// FallbackVerifierName tags results produced without a real AI call.
const FallbackVerifierName = "Mock AI (Demo Mode)"

// scenario is one entry of the fallback classification table. A scenario
// matches when every keyword appears in the lowercased claim text.
type scenario struct {
	keywords   []string
	verdict    types.Verdict
	confidence int
	reasoning  string
}

// scenarios are tried in order; the first match wins.
var scenarios = []scenario{
	{
		keywords:   []string{"hedera", "carbon negative"},
		verdict:    types.VerdictTrue,
		confidence: 92,
		reasoning:  "Hedera has achieved carbon negativity through renewable energy credits and environmental initiatives.",
	},
	{
		keywords:   []string{"earth", "billion years"},
		verdict:    types.VerdictTrue,
		confidence: 95,
		reasoning:  "Scientific consensus places Earth's age at approximately 4.54 billion years.",
	},
	{
		keywords:   []string{"water", "boil", "100"},
		verdict:    types.VerdictTrue,
		confidence: 98,
		reasoning:  "Water boils at 100°C (212°F) at standard atmospheric pressure.",
	},
	{
		keywords:   []string{"ai", "process", "faster"},
		verdict:    types.VerdictTrue,
		confidence: 88,
		reasoning:  "AI systems can process certain types of information significantly faster than humans.",
	},
	{
		keywords:   []string{"flat earth"},
		verdict:    types.VerdictFalse,
		confidence: 99,
		reasoning:  "Scientific evidence overwhelmingly proves Earth is spherical.",
	},
	{
		keywords:   []string{"earth is flat"},
		verdict:    types.VerdictFalse,
		confidence: 99,
		reasoning:  "Scientific evidence overwhelmingly proves Earth is spherical.",
	},
}

// FallbackVerifier classifies claims without any external call. Known
// demo claims resolve through the scenario table; unknown claims get a
// coin-flip verdict with confidence in [60, 89], so callers must not expect
// verdict stability for unseen text.
type FallbackVerifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackVerifier creates the deterministic-table fallback classifier
func NewFallbackVerifier() *FallbackVerifier {
	return &FallbackVerifier{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Verify never returns an error
func (f *FallbackVerifier) Verify(_ context.Context, claim string) (*models.Verification, error) {
	lower := strings.ToLower(claim)

	for _, s := range scenarios {
		if s.matches(lower) {
			return &models.Verification{
				Verdict:    s.verdict,
				Confidence: s.confidence,
				Reasoning:  s.reasoning,
				Verifier:   FallbackVerifierName,
				Timestamp:  time.Now().UTC(),
			}, nil
		}
	}

	f.mu.Lock()
	flip := f.rng.Intn(2) == 0
	confidence := 60 + f.rng.Intn(30)
	f.mu.Unlock()

	verdict := types.VerdictTrue
	if flip {
		verdict = types.VerdictFalse
	}

	return &models.Verification{
		Verdict:    verdict,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("Demo verification - the claim %q requires expert analysis.", claim),
		Verifier:   FallbackVerifierName,
		Timestamp:  time.Now().UTC(),
	}, nil
}

func (s *scenario) matches(lowerClaim string) bool {
	for _, kw := range s.keywords {
		if !strings.Contains(lowerClaim, kw) {
			return false
		}
	}
	return true
}
