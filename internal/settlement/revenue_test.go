package settlement

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/truth-market/internal/types"
)

const maxSplitTotal = types.TinybarPerHbar * 1000

func TestSplit(t *testing.T) {
	dist := Split(1_000_000, "0.0.2002")

	assert.Equal(t, int64(1_000_000), dist.TotalTinybar)
	assert.Equal(t, int64(700_000), dist.SubmitterTinybar)
	assert.Equal(t, int64(200_000), dist.AgentTinybar)
	assert.Equal(t, int64(100_000), dist.PlatformTinybar)
	assert.Equal(t, "0.0.2002", dist.Seller)
	assert.False(t, dist.Transferred)
}

func TestSplitRoundingGoesToPlatform(t *testing.T) {
	// 33 tinybar: 70% = 23, 20% = 6, platform takes the remaining 4
	dist := Split(33, "0.0.2002")

	assert.Equal(t, int64(23), dist.SubmitterTinybar)
	assert.Equal(t, int64(6), dist.AgentTinybar)
	assert.Equal(t, int64(4), dist.PlatformTinybar)
}

func TestRetained(t *testing.T) {
	dist := Retained(1_000_000, "0.0.999")

	assert.Equal(t, int64(1_000_000), dist.TotalTinybar)
	assert.Equal(t, int64(0), dist.SubmitterTinybar)
	assert.Equal(t, int64(0), dist.AgentTinybar)
	assert.Equal(t, int64(1_000_000), dist.PlatformTinybar)
	assert.Equal(t, "0.0.999", dist.Seller)
}

func TestSplitProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("shares always sum exactly to the total", prop.ForAll(
		func(total int64) bool {
			dist := Split(total, "0.0.2002")
			return dist.SubmitterTinybar+dist.AgentTinybar+dist.PlatformTinybar == total
		},
		gen.Int64Range(0, maxSplitTotal),
	))

	properties.Property("no share is negative", prop.ForAll(
		func(total int64) bool {
			dist := Split(total, "0.0.2002")
			return dist.SubmitterTinybar >= 0 && dist.AgentTinybar >= 0 && dist.PlatformTinybar >= 0
		},
		gen.Int64Range(0, maxSplitTotal),
	))

	properties.Property("platform share absorbs at most the rounding on top of 10%", prop.ForAll(
		func(total int64) bool {
			dist := Split(total, "0.0.2002")
			exactTenth := total * 10 / 100
			return dist.PlatformTinybar >= exactTenth && dist.PlatformTinybar <= exactTenth+2
		},
		gen.Int64Range(0, maxSplitTotal),
	))

	properties.TestingRun(t)
}
