// Package anthropic adapts the direct-Anthropic and Anthropic-on-Vertex
// providers to the provider.Client contract. Payload shaping (message
// conversion, cache_control placement, beta headers, thinking budget) is
// handled entirely in this package; the executor only ever sees
// provider-agnostic request/response types.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/llmproc/llmproc-go/internal/backoff"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// Config holds the adapter's construction parameters.
type Config struct {
	// APIKey is the Anthropic API authentication key (required unless
	// UseVertex is set, in which case Vertex ADC handles auth).
	APIKey string

	// BaseURL overrides the default Anthropic API base URL.
	BaseURL string

	// UseVertex routes requests through Anthropic-on-Vertex instead of the
	// direct Anthropic API; token-efficient-tools is never applied in this
	// mode (spec §4.4).
	UseVertex bool

	// MaxRetries bounds retry attempts for transient failures. Default 3.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff. Default 1s.
	RetryDelay time.Duration

	// DefaultModel is used when a request leaves Model empty.
	DefaultModel string
}

// Provider implements provider.Client for direct-Anthropic and
// Anthropic-on-Vertex.
type Provider struct {
	client       anthropic.Client
	useVertex    bool
	maxRetries   int
	retryDelay   time.Duration
	defaultModel string
}

// New constructs a Provider from cfg, applying defaults for unset optional
// fields.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" && !cfg.UseVertex {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-5"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		client:       anthropic.NewClient(opts...),
		useVertex:    cfg.UseVertex,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		defaultModel: cfg.DefaultModel,
	}, nil
}

// Name implements provider.Client.
func (p *Provider) Name() string {
	if p.useVertex {
		return "anthropic-vertex"
	}
	return "anthropic"
}

func (p *Provider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}

// tokenEfficientToolsBeta is the beta header applied to claude-3-7 models on
// the direct (non-Vertex) API, per spec §4.4.
const tokenEfficientToolsBeta = "token-efficient-tools-2025-02-19"

func (p *Provider) effectiveHeaders(model string, extra map[string]string) map[string]string {
	headers := make(map[string]string, len(extra))
	for k, v := range extra {
		headers[k] = v
	}
	_, hasBeta := headers["anthropic-beta"]
	wantsBeta := !p.useVertex && strings.HasPrefix(model, "claude-3-7")
	if wantsBeta {
		headers["anthropic-beta"] = tokenEfficientToolsBeta
	} else if hasBeta && headers["anthropic-beta"] == tokenEfficientToolsBeta {
		delete(headers, "anthropic-beta")
	}
	return headers
}

// CreateMessage implements provider.Client.
func (p *Provider) CreateMessage(ctx context.Context, req provider.CreateRequest) (*provider.Response, error) {
	model := p.model(req.Model)
	params, reqOpts, err := p.buildParams(model, req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: building request: %w", err)
	}

	var msg *anthropic.Message
	err = p.retry(ctx, func() error {
		var callErr error
		msg, callErr = p.client.Messages.New(ctx, params, reqOpts...)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages.create: %w", err)
	}

	return p.convertResponse(msg), nil
}

// CountTokens implements provider.Client.
func (p *Provider) CountTokens(ctx context.Context, req provider.CountTokensRequest) (*provider.CountTokensResponse, error) {
	model := p.model(req.Model)
	params, err := p.buildCountParams(model, req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: building count_tokens request: %w", err)
	}

	var resp *anthropic.MessageTokensCount
	err = p.retry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.Messages.CountTokens(ctx, params)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages.count_tokens: %w", err)
	}
	return &provider.CountTokensResponse{InputTokens: int(resp.InputTokens)}, nil
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

func isRetryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}
	return false
}

func (p *Provider) convertResponse(msg *anthropic.Message) *provider.Response {
	resp := &provider.Response{
		StopReason: convertStopReason(string(msg.StopReason)),
		Usage: provider.Usage{
			InputTokens:           int(msg.Usage.InputTokens),
			OutputTokens:          int(msg.Usage.OutputTokens),
			CacheCreationInputTok: int(msg.Usage.CacheCreationInputTokens),
			CacheReadInputTok:     int(msg.Usage.CacheReadInputTokens),
		},
	}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, models.NewTextBlock(variant.Text))
		case anthropic.ToolUseBlock:
			input, _ := json.Marshal(variant.Input)
			resp.Content = append(resp.Content, models.NewToolUseBlock(variant.ID, variant.Name, input))
		}
	}
	return resp
}

func convertStopReason(raw string) models.StopReason {
	switch raw {
	case "end_turn":
		return models.StopEndTurn
	case "tool_use":
		return models.StopToolUse
	case "max_tokens":
		return models.StopMaxTokens
	case "stop_sequence":
		return models.StopSequence
	default:
		return models.StopEndTurn
	}
}
