package executor

import (
	"context"

	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/internal/provider/modelinfo"
	"github.com/llmproc/llmproc-go/internal/tool"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// TokenCount reports the context-window consumption of t's current state,
// per spec §4.4's distinct count_tokens() operation.
type TokenCount struct {
	InputTokens     int
	ContextWindow   int
	Percentage      float64
	RemainingTokens int
}

// CountTokens assembles the same payload transforms as Run, minus cache
// markers, and calls the provider's token-count endpoint. Like Run, it
// applies the empty-state guard so count_tokens never sends an empty
// message list.
func CountTokens(ctx context.Context, t Target) (*TokenCount, error) {
	prog := t.Program()

	messages := t.State().Messages()
	if len(messages) == 0 {
		messages = []models.Message{models.NewUserMessage(models.NewTextBlock("(count_tokens placeholder)"))}
	}

	schemas, err := t.Tools().Schemas(ctx)
	if err != nil {
		return nil, err
	}
	toolDefs := make([]provider.ToolDef, len(schemas))
	for i, s := range schemas {
		toolDefs[i] = provider.ToolDef{
			Name:        s.Name,
			Description: s.Description,
			InputSchema: tool.AssertSchemaNonNil(s.InputSchema),
		}
	}

	req := provider.CountTokensRequest{
		Model:    prog.Model,
		System:   t.EnrichedSystemPrompt(),
		Messages: messages,
		Tools:    toolDefs,
	}
	resp, err := t.ProviderClient().CountTokens(ctx, req)
	if err != nil {
		return nil, err
	}

	window := modelinfo.ContextWindow(prog.Model)
	remaining := window - resp.InputTokens
	if remaining < 0 {
		remaining = 0
	}
	return &TokenCount{
		InputTokens:     resp.InputTokens,
		ContextWindow:   window,
		Percentage:      100 * float64(resp.InputTokens) / float64(window),
		RemainingTokens: remaining,
	}, nil
}
