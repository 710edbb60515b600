// Package provider defines the thin abstraction the executor drives: every
// concrete provider (Anthropic, OpenAI, Gemini) implements Client with the
// same external contract, keeping payload-shaping differences local to each
// adapter package (spec §6 "Provider abstraction").
package provider

import (
	"context"
	"encoding/json"

	"github.com/llmproc/llmproc-go/pkg/models"
)

// StopReason mirrors models.StopReason but is restricted to the subset a
// provider response itself can report (excludes executor-imposed reasons
// like iteration_limit/cost_exhausted).
type StopReason = models.StopReason

// Usage reports token accounting for one API call.
type Usage struct {
	InputTokens           int
	OutputTokens          int
	CacheCreationInputTok int
	CacheReadInputTok     int
}

// Response is a provider-agnostic view of one messages.create call.
type Response struct {
	Content    []models.ContentBlock
	StopReason StopReason
	Usage      Usage
}

// ToolDef is the provider-agnostic tool schema shape passed to Create. A
// provider adapter that supports cache_control marks the last definition in
// CreateRequest.Tools as the cache anchor itself, per spec §4.4.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// CreateRequest bundles everything the executor assembles for one API call.
type CreateRequest struct {
	Model    string
	System   string
	Messages []models.Message
	Tools    []ToolDef

	MaxTokens       int
	Temperature     float64
	TopP            float64
	ThinkingBudget  int
	ReasoningEffort string

	// ExtraHeaders carries provider-specific beta headers (e.g. Anthropic's
	// token-efficient-tools beta), set by the executor per spec §4.4.
	ExtraHeaders map[string]string

	// CacheBreakpoints marks 0-indexed positions into Messages whose last
	// content block should carry an ephemeral cache_control marker.
	CacheBreakpoints []int

	// CachingDisabled turns off all cache_control placement, including the
	// unconditional last-message marker, when the program sets
	// disable_automatic_caching (spec §4.4).
	CachingDisabled bool
}

// CountTokensRequest mirrors CreateRequest's shape without cache markers, for
// the distinct count_tokens operation (spec §4.4).
type CountTokensRequest struct {
	Model    string
	System   string
	Messages []models.Message
	Tools    []ToolDef
}

// CountTokensResponse reports raw usage; the executor derives context-window
// percentage from internal/provider/modelinfo.
type CountTokensResponse struct {
	InputTokens int
}

// Client is the contract the executor drives. Concrete adapters live under
// internal/provider/<name>.
type Client interface {
	// Name identifies the provider, e.g. "anthropic", "openai".
	Name() string

	CreateMessage(ctx context.Context, req CreateRequest) (*Response, error)
	CountTokens(ctx context.Context, req CountTokensRequest) (*CountTokensResponse, error)
}
