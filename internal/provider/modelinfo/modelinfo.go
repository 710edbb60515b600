// Package modelinfo holds the static, compile-time per-model tables the
// executor needs for token-window reporting and cost estimation (spec §4.4
// count_tokens, §9 "caches ... are compile-time data").
package modelinfo

// ContextWindow is the conservative default applied to any model not listed
// below (spec §4.4: "unknown models default to a conservative 100 000").
const DefaultContextWindow = 100_000

// contextWindows maps model id to its total context window in tokens.
var contextWindows = map[string]int{
	"claude-opus-4-1":           200_000,
	"claude-opus-4":             200_000,
	"claude-sonnet-4-5":         200_000,
	"claude-sonnet-4":           200_000,
	"claude-3-7-sonnet":         200_000,
	"claude-3-5-sonnet":         200_000,
	"claude-3-5-haiku":          200_000,
	"claude-haiku-4-5":          200_000,
	"gpt-4o":                    128_000,
	"gpt-4o-mini":               128_000,
	"gpt-4.1":                   1_047_576,
	"o3":                        200_000,
	"o4-mini":                   200_000,
	"gemini-2.5-pro":            1_048_576,
	"gemini-2.5-flash":          1_048_576,
}

// ContextWindow returns the context window for model, or DefaultContextWindow
// if model is not recognized.
func ContextWindow(model string) int {
	if w, ok := contextWindows[model]; ok {
		return w
	}
	return DefaultContextWindow
}

// Price is the USD cost per million tokens for one pricing tier.
type Price struct {
	InputPerMTok      float64
	OutputPerMTok     float64
	CacheWritePerMTok float64
	CacheReadPerMTok  float64
}

// prices is intentionally incomplete; callers needing authoritative figures
// should supply their own pricing function to models.RunResult.TotalUSDCost
// (spec §9 open question 2 — cost accounting is model-pricing-dependent and
// left configurable).
var prices = map[string]Price{
	"claude-opus-4-1":   {InputPerMTok: 15, OutputPerMTok: 75, CacheWritePerMTok: 18.75, CacheReadPerMTok: 1.5},
	"claude-sonnet-4-5": {InputPerMTok: 3, OutputPerMTok: 15, CacheWritePerMTok: 3.75, CacheReadPerMTok: 0.3},
	"claude-3-5-haiku":  {InputPerMTok: 0.8, OutputPerMTok: 4, CacheWritePerMTok: 1, CacheReadPerMTok: 0.08},
	"gpt-4o":            {InputPerMTok: 2.5, OutputPerMTok: 10},
	"gpt-4o-mini":       {InputPerMTok: 0.15, OutputPerMTok: 0.6},
}

// PriceFor returns the pricing tier for model and true, or the zero Price and
// false if model is unlisted.
func PriceFor(model string) (Price, bool) {
	p, ok := prices[model]
	return p, ok
}

// CostUSD computes the dollar cost of one call's usage under model's listed
// pricing, applying the cache-read heuristic (reads priced at CacheReadPerMTok,
// creation at CacheWritePerMTok). Returns 0 for an unlisted model.
func CostUSD(model string, inputTokens, outputTokens, cacheCreationTokens, cacheReadTokens int) float64 {
	p, ok := PriceFor(model)
	if !ok {
		return 0
	}
	const perMillion = 1_000_000.0
	return float64(inputTokens)*p.InputPerMTok/perMillion +
		float64(outputTokens)*p.OutputPerMTok/perMillion +
		float64(cacheCreationTokens)*p.CacheWritePerMTok/perMillion +
		float64(cacheReadTokens)*p.CacheReadPerMTok/perMillion
}
