package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

var ephemeralCache = anthropic.CacheControlEphemeralParam{Type: "ephemeral"}

func (p *Provider) buildParams(model string, req provider.CreateRequest) (anthropic.MessageNewParams, []option.RequestOption, error) {
	breakpoints := req.CacheBreakpoints
	markLast := !req.CachingDisabled
	if req.CachingDisabled {
		breakpoints = nil
	}
	messages, err := convertMessages(req.Messages, breakpoints, markLast)
	if err != nil {
		return anthropic.MessageNewParams{}, nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  messages,
		MaxTokens: int64(nonZero(req.MaxTokens, 4096)),
	}

	if req.System != "" {
		sysBlock := anthropic.TextBlockParam{Type: "text", Text: req.System}
		if !req.CachingDisabled {
			sysBlock.CacheControl = ephemeralCache
		}
		params.System = []anthropic.TextBlockParam{sysBlock}
	}

	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools, !req.CachingDisabled)
		if err != nil {
			return anthropic.MessageNewParams{}, nil, err
		}
		params.Tools = tools
	}

	if req.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(req.ThinkingBudget))
	} else {
		if req.Temperature != 0 {
			params.Temperature = anthropic.Float(req.Temperature)
		}
		if req.TopP != 0 {
			params.TopP = anthropic.Float(req.TopP)
		}
	}

	headers := p.effectiveHeaders(model, req.ExtraHeaders)
	var opts []option.RequestOption
	for k, v := range headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return params, opts, nil
}

func (p *Provider) buildCountParams(model string, req provider.CountTokensRequest) (anthropic.MessageCountTokensParams, error) {
	messages, err := convertMessages(req.Messages, nil, false)
	if err != nil {
		return anthropic.MessageCountTokensParams{}, err
	}
	params := anthropic.MessageCountTokensParams{
		Model:    anthropic.Model(model),
		Messages: messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools, false)
		if err != nil {
			return anthropic.MessageCountTokensParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

// convertMessages maps our provider-agnostic Message slice to Anthropic's
// MessageParam slice, applying an ephemeral cache_control marker to the last
// content block of the positions named in breakpoints, plus (when markLast
// is set) to the very last message. Callers pass markLast=false and a nil
// breakpoints slice to suppress all cache_control placement, per
// disable_automatic_caching (spec §4.4 caching placement rule).
func convertMessages(messages []models.Message, breakpoints []int, markLast bool) ([]anthropic.MessageParam, error) {
	bp := make(map[int]bool, len(breakpoints))
	for _, i := range breakpoints {
		bp[i] = true
	}

	out := make([]anthropic.MessageParam, 0, len(messages))
	for i, m := range messages {
		blocks, err := convertContentBlocks(m.Content)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if (bp[i] || (markLast && i == len(messages)-1)) && len(blocks) > 0 {
			applyCacheControl(&blocks[len(blocks)-1])
		}

		role := anthropic.MessageParamRoleUser
		if m.Role == models.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out, nil
}

func convertContentBlocks(blocks []models.ContentBlock) ([]anthropic.ContentBlockParamUnion, error) {
	out := make([]anthropic.ContentBlockParamUnion, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case models.BlockText:
			out = append(out, anthropic.ContentBlockParamUnion{OfText: &anthropic.TextBlockParam{Type: "text", Text: b.Text}})
		case models.BlockToolUse:
			var input any
			if len(b.ToolUseInput) > 0 {
				if err := json.Unmarshal(b.ToolUseInput, &input); err != nil {
					return nil, fmt.Errorf("tool_use %q input: %w", b.ToolUseName, err)
				}
			}
			out = append(out, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
				Type: "tool_use", ID: b.ToolUseID, Name: b.ToolUseName, Input: input,
			}})
		case models.BlockToolResult:
			out = append(out, anthropic.ContentBlockParamUnion{OfToolResult: &anthropic.ToolResultBlockParam{
				Type:      "tool_result",
				ToolUseID: b.ToolResultForID,
				IsError:   anthropic.Bool(b.ToolResultError),
				Content: []anthropic.ToolResultBlockParamContentUnion{
					{OfText: &anthropic.TextBlockParam{Type: "text", Text: b.ToolResultText}},
				},
			}})
		default:
			return nil, fmt.Errorf("unsupported block type %q", b.Type)
		}
	}
	return out, nil
}

// applyCacheControl sets the ephemeral marker on whichever variant of the
// union is populated.
func applyCacheControl(block *anthropic.ContentBlockParamUnion) {
	switch {
	case block.OfText != nil:
		block.OfText.CacheControl = ephemeralCache
	case block.OfToolUse != nil:
		block.OfToolUse.CacheControl = ephemeralCache
	case block.OfToolResult != nil:
		block.OfToolResult.CacheControl = ephemeralCache
	}
}

// convertTools maps provider.ToolDef slices to Anthropic's tool param shape,
// marking the last tool definition with the ephemeral cache_control marker
// when markLast is set (spec §4.4: caches all tool definitions as a unit;
// suppressed entirely under disable_automatic_caching).
func convertTools(defs []provider.ToolDef, markLast bool) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for i, d := range defs {
		var schema anthropic.ToolInputSchemaParam
		if len(d.InputSchema) > 0 {
			if err := json.Unmarshal(d.InputSchema, &schema); err != nil {
				return nil, fmt.Errorf("tool %q: invalid input_schema: %w", d.Name, err)
			}
		}
		tp := &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: schema,
		}
		if markLast && i == len(defs)-1 {
			tp.CacheControl = ephemeralCache
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: tp})
	}
	return out, nil
}

func nonZero(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
