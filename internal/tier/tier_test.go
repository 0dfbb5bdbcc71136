package tier

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/truth-market/internal/types"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  types.BadgeTier
	}{
		{"zero purchases", 0, types.TierBronze},
		{"just below uncommon", 9, types.TierBronze},
		{"uncommon boundary", 10, types.TierUncommon},
		{"just below rare", 14, types.TierUncommon},
		{"rare boundary", 15, types.TierRare},
		{"just below epic", 24, types.TierRare},
		{"epic boundary", 25, types.TierEpic},
		{"just below legendary", 49, types.TierEpic},
		{"legendary boundary", 50, types.TierLegendary},
		{"far past legendary", 500, types.TierLegendary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierFor(tt.count))
		})
	}
}

func TestIsMilestone(t *testing.T) {
	assert.False(t, IsMilestone(0))
	assert.False(t, IsMilestone(4))
	assert.True(t, IsMilestone(5))
	assert.False(t, IsMilestone(6))
	assert.True(t, IsMilestone(10))
	assert.True(t, IsMilestone(50))
}

func TestNextMilestoneIn(t *testing.T) {
	assert.Equal(t, 5, NextMilestoneIn(0))
	assert.Equal(t, 4, NextMilestoneIn(1))
	assert.Equal(t, 1, NextMilestoneIn(4))
	assert.Equal(t, 5, NextMilestoneIn(5))
	assert.Equal(t, 2, NextMilestoneIn(13))
}

func tierRank(t types.BadgeTier) int {
	switch t {
	case types.TierBronze:
		return 0
	case types.TierUncommon:
		return 1
	case types.TierRare:
		return 2
	case types.TierEpic:
		return 3
	case types.TierLegendary:
		return 4
	}
	return -1
}

func TestTierMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("tier never decreases as purchases grow", prop.ForAll(
		func(count int) bool {
			return tierRank(TierFor(count+1)) >= tierRank(TierFor(count))
		},
		gen.IntRange(0, 1000),
	))

	properties.Property("every count maps to a known tier", prop.ForAll(
		func(count int) bool {
			return tierRank(TierFor(count)) >= 0
		},
		gen.IntRange(0, 10000),
	))

	properties.Property("milestones repeat every five purchases", prop.ForAll(
		func(n int) bool {
			return IsMilestone(n*MilestoneInterval) &&
				!IsMilestone(n*MilestoneInterval+1)
		},
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t)
}
