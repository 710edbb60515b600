// Package openai adapts OpenAI's chat-completions API to the
// provider.Client contract, including tool calling and the o-family
// reasoning-effort parameter (spec §6).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/llmproc/llmproc-go/internal/backoff"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// Config holds the adapter's construction parameters.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// Provider implements provider.Client for OpenAI chat completions.
type Provider struct {
	client       *openai.Client
	defaultModel string
	maxRetries   int
	retryDelay   time.Duration
}

// New constructs a Provider from cfg.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4o"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: cfg.DefaultModel,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}, nil
}

// Name implements provider.Client.
func (p *Provider) Name() string { return "openai" }

func (p *Provider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}

// CreateMessage implements provider.Client.
func (p *Provider) CreateMessage(ctx context.Context, req provider.CreateRequest) (*provider.Response, error) {
	model := p.model(req.Model)
	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(req.Messages, req.System),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if isReasoningModel(model) {
		chatReq.ReasoningEffort = req.ReasoningEffort
	} else {
		if req.Temperature != 0 {
			chatReq.Temperature = float32(req.Temperature)
		}
		if req.TopP != 0 {
			chatReq.TopP = float32(req.TopP)
		}
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("openai: converting tools: %w", err)
		}
		chatReq.Tools = tools
	}

	var resp openai.ChatCompletionResponse
	err := p.retry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, chatReq)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("openai: chat.completions.create: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response contained no choices")
	}

	return convertResponse(resp), nil
}

// CountTokens implements provider.Client. OpenAI exposes no dedicated
// token-counting endpoint; the chat-completions API reports usage only
// after a real call, so this returns ErrCountTokensUnsupported, matching the
// provider-agnostic contract's allowance for per-provider capability gaps.
var ErrCountTokensUnsupported = errors.New("openai: count_tokens is not supported by the chat completions API")

func (p *Provider) CountTokens(ctx context.Context, req provider.CountTokensRequest) (*provider.CountTokensResponse, error) {
	return nil, ErrCountTokensUnsupported
}

// retry applies exponential backoff with jitter to transient failures.
func (p *Provider) retry(ctx context.Context, op func() error) error {
	policy := backoff.BackoffPolicy{
		InitialMs: float64(p.retryDelay.Milliseconds()),
		MaxMs:     float64(p.retryDelay.Milliseconds()) * 32,
		Factor:    2,
		Jitter:    0.1,
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			if err := backoff.SleepWithBackoff(ctx, policy, attempt); err != nil {
				return err
			}
		}
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return lastErr
}

func isReasoningModel(model string) bool {
	switch model {
	case "o1", "o1-mini", "o1-preview", "o3", "o3-mini", "o4-mini":
		return true
	default:
		return false
	}
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

func convertMessages(messages []models.Message, system string) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}

		var text string
		var toolCalls []openai.ToolCall
		for _, b := range m.Content {
			switch b.Type {
			case models.BlockText:
				text += b.Text
			case models.BlockToolUse:
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   b.ToolUseID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      b.ToolUseName,
						Arguments: string(b.ToolUseInput),
					},
				})
			case models.BlockToolResult:
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    b.ToolResultText,
					ToolCallID: b.ToolResultForID,
				})
			}
		}
		if text != "" || len(toolCalls) > 0 {
			out = append(out, openai.ChatCompletionMessage{Role: role, Content: text, ToolCalls: toolCalls})
		}
	}
	return out
}

func convertTools(defs []provider.ToolDef) ([]openai.Tool, error) {
	out := make([]openai.Tool, len(defs))
	for i, d := range defs {
		var params any
		if len(d.InputSchema) > 0 {
			if err := json.Unmarshal(d.InputSchema, &params); err != nil {
				return nil, fmt.Errorf("tool %q: invalid input_schema: %w", d.Name, err)
			}
		}
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		}
	}
	return out, nil
}

func convertResponse(resp openai.ChatCompletionResponse) *provider.Response {
	choice := resp.Choices[0]
	out := &provider.Response{
		Usage: provider.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	if choice.Message.Content != "" {
		out.Content = append(out.Content, models.NewTextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		out.Content = append(out.Content, models.NewToolUseBlock(tc.ID, tc.Function.Name, json.RawMessage(tc.Function.Arguments)))
	}

	switch choice.FinishReason {
	case openai.FinishReasonToolCalls:
		out.StopReason = models.StopToolUse
	case openai.FinishReasonLength:
		out.StopReason = models.StopMaxTokens
	case openai.FinishReasonStop:
		out.StopReason = models.StopEndTurn
	default:
		out.StopReason = models.StopEndTurn
	}
	return out
}
