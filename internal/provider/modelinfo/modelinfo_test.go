package modelinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextWindowKnownAndUnknown(t *testing.T) {
	assert.Equal(t, 200_000, ContextWindow("claude-sonnet-4-5"))
	assert.Equal(t, DefaultContextWindow, ContextWindow("some-future-model"))
}

func TestCostUSDKnownModel(t *testing.T) {
	cost := CostUSD("claude-3-5-haiku", 1_000_000, 1_000_000, 0, 0)
	assert.InDelta(t, 0.8+4, cost, 0.0001)
}

func TestCostUSDUnknownModelIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CostUSD("mystery-model", 1000, 1000, 0, 0))
}
