// Package models provides data models for the truth market system.
package models

import (
	"time"

	"github.com/truth-market/internal/types"
)

// Claim represents a verified factual assertion. A claim is created on first
// verification and is immutable once its verdict is TRUE or FALSE; only
// UNCERTAIN claims may be re-verified.
type Claim struct {
	ID          string        `json:"id" db:"id"`
	Text        string        `json:"text" db:"text"`
	Verdict     types.Verdict `json:"verdict" db:"verdict"`
	Confidence  int           `json:"confidence" db:"confidence"`
	Reasoning   string        `json:"reasoning" db:"reasoning"`
	Verifier    string        `json:"verifier" db:"verifier"`
	SubmittedBy string        `json:"submittedBy" db:"submitted_by"`
	CreatedAt   time.Time     `json:"timestamp" db:"created_at"`
}

// Settled reports whether the claim verdict is final. UNCERTAIN claims may be
// verified again later.
func (c *Claim) Settled() bool {
	return c.Verdict == types.VerdictTrue || c.Verdict == types.VerdictFalse
}

// HasRealSubmitter reports whether the claim was submitted by an identified
// account that can receive a revenue share.
func (c *Claim) HasRealSubmitter(truthAgentAccount string) bool {
	if c.SubmittedBy == "" || c.SubmittedBy == types.AnonymousSubmitter {
		return false
	}
	return c.SubmittedBy != truthAgentAccount
}
