package models

import (
	"time"

	"github.com/truth-market/internal/types"
)

// Verification is the outcome of a single claim verification call, whether it
// came from the AI endpoint, the fallback classifier, or a cache layer.
type Verification struct {
	Verdict    types.Verdict `json:"verdict"`
	Confidence int           `json:"confidence"` // 0-100
	Reasoning  string        `json:"reasoning"`
	Verifier   string        `json:"verifier"`
	Cached     bool          `json:"cached"`
	Timestamp  time.Time     `json:"timestamp"`
}
