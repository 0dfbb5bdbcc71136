// Package settlement implements the purchase pipeline: validation, agent
// proof gating, claim resolution, sale recording, revenue distribution,
// buyer profile updates and threshold badge minting.
package settlement

import (
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/types"
)

// DefaultPriceTinybar is the fixed claim price: 0.01 HBAR.
const DefaultPriceTinybar int64 = types.TinybarPerHbar / 100

// Revenue split percentages. The platform share is computed as the
// remainder so the three parts always sum exactly to the total.
const (
	submitterPercent = 70
	agentPercent     = 20
)

// Split divides a sale price into integer tinybar shares: 70% to the claim
// submitter, 20% retained as the truth agent share, and the remainder
// (nominally 10%, absorbing all rounding) retained by the platform.
func Split(totalTinybar int64, seller string) *models.Distribution {
	submitter := totalTinybar * submitterPercent / 100
	agent := totalTinybar * agentPercent / 100

	return &models.Distribution{
		TotalTinybar:     totalTinybar,
		SubmitterTinybar: submitter,
		AgentTinybar:     agent,
		PlatformTinybar:  totalTinybar - submitter - agent,
		Seller:           seller,
	}
}

// Retained builds the distribution for an agent-generated claim: the whole
// price stays with the treasury and no transfer is attempted.
func Retained(totalTinybar int64, treasury string) *models.Distribution {
	return &models.Distribution{
		TotalTinybar:    totalTinybar,
		PlatformTinybar: totalTinybar,
		Seller:          treasury,
	}
}
