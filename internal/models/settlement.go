package models

import "github.com/truth-market/internal/types"

// Rejection carries the machine-readable reason a purchase was refused before
// any sale was recorded.
type Rejection struct {
	Code         string        `json:"code"`
	Message      string        `json:"message"`
	Field        string        `json:"field,omitempty"`
	Verification *Verification `json:"verification,omitempty"`
}

// Distribution is the integer-tinybar revenue split for a single sale. The
// three shares always sum exactly to the sale price; rounding remainder is
// absorbed by the platform share.
type Distribution struct {
	TotalTinybar     int64 `json:"totalTinybar"`
	SubmitterTinybar int64 `json:"submitterTinybar"`
	AgentTinybar     int64 `json:"agentTinybar"`
	PlatformTinybar  int64 `json:"platformTinybar"`
	// Seller the submitter share was (or would have been) paid to. When the
	// seller is the treasury the whole price is bookkept as retained and no
	// transfer is attempted.
	Seller        string `json:"seller"`
	Transferred   bool   `json:"transferred"`
	TransferTxID  string `json:"transferTransactionId,omitempty"`
	TransferError string `json:"transferError,omitempty"`
}

// BuyerStats is the buyer-facing slice of the profile returned with a
// settlement result.
type BuyerStats struct {
	AccountID     string `json:"accountId"`
	PurchaseCount int    `json:"purchaseCount"`
	BadgesEarned  int    `json:"badgesEarned"`
	NextBadgeIn   int    `json:"nextBadgeIn"`
}

// BadgeOutcome reports whether the settlement crossed a badge threshold.
type BadgeOutcome struct {
	Minted bool   `json:"minted"`
	Badge  *Badge `json:"badge,omitempty"`
	NextIn int    `json:"nextIn,omitempty"`
}

// SettlementResult is the aggregate outcome of one purchase request.
type SettlementResult struct {
	State      types.SettlementState `json:"state"`
	Sale       *Sale                 `json:"sale,omitempty"`
	Buyer      *BuyerStats           `json:"buyer,omitempty"`
	Badge      *BadgeOutcome         `json:"badge,omitempty"`
	Revenue    *Distribution         `json:"revenue,omitempty"`
	AgentProof *AgentProof           `json:"agentProof,omitempty"`
	Rejection  *Rejection            `json:"rejection,omitempty"`
	// Warnings surface degraded steps (failed transfer, demo badge) that did
	// not invalidate the sale.
	Warnings []string `json:"warnings,omitempty"`
}
