// Package types provides common type definitions for the truth market system.
package types

// Verdict represents the outcome of claim verification
type Verdict string

const (
	// VerdictTrue represents a claim judged to be true
	VerdictTrue Verdict = "TRUE"
	// VerdictFalse represents a claim judged to be false
	VerdictFalse Verdict = "FALSE"
	// VerdictUncertain represents a claim that could not be judged either way
	VerdictUncertain Verdict = "UNCERTAIN"
)

// BadgeTier represents the rarity tier of a minted badge
type BadgeTier string

const (
	// TierBronze is awarded for the first badge thresholds
	TierBronze BadgeTier = "BRONZE"
	// TierUncommon is awarded from 10 purchases
	TierUncommon BadgeTier = "UNCOMMON"
	// TierRare is awarded from 15 purchases
	TierRare BadgeTier = "RARE"
	// TierEpic is awarded from 25 purchases
	TierEpic BadgeTier = "EPIC"
	// TierLegendary is awarded from 50 purchases
	TierLegendary BadgeTier = "LEGENDARY"
)

// SettlementState represents the terminal state of a purchase settlement
type SettlementState string

const (
	// SettlementSuccess means the sale was recorded and the result assembled
	SettlementSuccess SettlementState = "success"
	// SettlementRejected means the purchase was refused before any sale was recorded
	SettlementRejected SettlementState = "rejected"
	// SettlementFailed means the durability layer failed mid-settlement
	SettlementFailed SettlementState = "failed"
)

// AnonymousSubmitter marks a claim whose submitter chose not to identify an account
const AnonymousSubmitter = "anonymous"

// TinybarPerHbar is the number of indivisible ledger units in one HBAR.
// All monetary arithmetic in the settlement engine is done in tinybar.
const TinybarPerHbar int64 = 100_000_000

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
