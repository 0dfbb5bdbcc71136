// Package tier classifies buyer purchase counts into badge tiers and decides
// when a purchase crosses a badge milestone.
package tier

import (
	"fmt"

	"github.com/truth-market/internal/types"
)

// MilestoneInterval is the number of purchases between badge mints.
const MilestoneInterval = 5

// TierFor maps a lifetime purchase count to a badge tier. The mapping is a
// step function; ties go to the higher tier.
func TierFor(purchaseCount int) types.BadgeTier {
	switch {
	case purchaseCount >= 50:
		return types.TierLegendary
	case purchaseCount >= 25:
		return types.TierEpic
	case purchaseCount >= 15:
		return types.TierRare
	case purchaseCount >= 10:
		return types.TierUncommon
	default:
		return types.TierBronze
	}
}

// IsMilestone reports whether a purchase count lands exactly on a badge
// milestone. Zero is not a milestone.
func IsMilestone(purchaseCount int) bool {
	return purchaseCount > 0 && purchaseCount%MilestoneInterval == 0
}

// NextMilestoneIn returns how many more purchases are needed to reach the
// next badge milestone.
func NextMilestoneIn(purchaseCount int) int {
	if purchaseCount < 0 {
		purchaseCount = 0
	}
	return MilestoneInterval - purchaseCount%MilestoneInterval
}

// BadgeName builds the display name for a badge minted at the given count.
func BadgeName(t types.BadgeTier, purchaseCount int) string {
	return fmt.Sprintf("TruthMarket %s Collector #%d", t, purchaseCount)
}

// BadgeDescription builds the description embedded in badge metadata.
func BadgeDescription(t types.BadgeTier, purchaseCount int) string {
	return fmt.Sprintf("Awarded for %d verified truth purchases at %s tier", purchaseCount, t)
}
