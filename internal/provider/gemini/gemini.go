// Package gemini adapts Google's Gemini API to the provider.Client contract
// using the google.golang.org/genai SDK (spec §6). Unlike the teacher's
// streaming agent.LLMProvider contract, provider.Client is a single-shot
// request/response call, so this adapter drives genai's non-streaming
// Models.GenerateContent rather than GenerateContentStream.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/llmproc/llmproc-go/internal/backoff"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// Config holds the adapter's construction parameters.
type Config struct {
	APIKey       string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// Provider implements provider.Client for the Gemini API.
type Provider struct {
	client       *genai.Client
	defaultModel string
	maxRetries   int
	retryDelay   time.Duration
}

// New constructs a Provider from cfg.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gemini-2.0-flash"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Provider{
		client:       client,
		defaultModel: cfg.DefaultModel,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}, nil
}

// Name implements provider.Client.
func (p *Provider) Name() string { return "gemini" }

func (p *Provider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}

// CreateMessage implements provider.Client.
func (p *Provider) CreateMessage(ctx context.Context, req provider.CreateRequest) (*provider.Response, error) {
	model := p.model(req.Model)
	contents := convertMessages(req.Messages)
	config := buildConfig(req)

	var resp *genai.GenerateContentResponse
	err := p.retry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.Models.GenerateContent(ctx, model, contents, config)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: models.generateContent: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.New("gemini: response contained no candidates")
	}

	return convertResponse(resp), nil
}

// CountTokens implements provider.Client using genai's dedicated
// count-tokens call rather than the character estimate the teacher's
// streaming provider fell back to, since the SDK exposes a real endpoint.
func (p *Provider) CountTokens(ctx context.Context, req provider.CountTokensRequest) (*provider.CountTokensResponse, error) {
	model := p.model(req.Model)
	contents := convertMessages(req.Messages)

	var resp *genai.CountTokensResponse
	err := p.retry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.Models.CountTokens(ctx, model, contents, nil)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: models.countTokens: %w", err)
	}
	return &provider.CountTokensResponse{InputTokens: int(resp.TotalTokens)}, nil
}

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
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "resource exhausted"), strings.Contains(msg, "rate limit"):
		return true
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"), strings.Contains(msg, "503"), strings.Contains(msg, "504"):
		return true
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timeout"):
		return true
	default:
		return false
	}
}

// convertMessages maps runtime messages onto Gemini's user/model role pair.
// Tool-use blocks become FunctionCall parts and tool-result blocks become
// FunctionResponse parts; the function name for a result is recovered by
// scanning the preceding tool-use blocks for a matching id, since
// ContentBlock carries no name on the result side.
func convertMessages(messages []models.Message) []*genai.Content {
	toolNames := map[string]string{}
	for _, m := range messages {
		for _, b := range m.ToolUses() {
			toolNames[b.ToolUseID] = b.ToolUseName
		}
	}

	var out []*genai.Content
	for _, m := range messages {
		content := &genai.Content{Role: genai.RoleUser}
		if m.Role == models.RoleAssistant {
			content.Role = genai.RoleModel
		}

		for _, b := range m.Content {
			switch b.Type {
			case models.BlockText:
				if b.Text != "" {
					content.Parts = append(content.Parts, &genai.Part{Text: b.Text})
				}
			case models.BlockToolUse:
				var args map[string]any
				if err := json.Unmarshal(b.ToolUseInput, &args); err != nil {
					args = map[string]any{}
				}
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: b.ToolUseName, Args: args},
				})
			case models.BlockToolResult:
				content.Parts = append(content.Parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						Name:     toolNames[b.ToolResultForID],
						Response: toolResponseMap(b),
					},
				})
			}
		}

		if len(content.Parts) > 0 {
			out = append(out, content)
		}
	}
	return out
}

func toolResponseMap(b models.ContentBlock) map[string]any {
	var response map[string]any
	if err := json.Unmarshal([]byte(b.ToolResultText), &response); err == nil {
		return response
	}
	return map[string]any{"result": b.ToolResultText, "error": b.ToolResultError}
}

func buildConfig(req provider.CreateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(min(req.MaxTokens, math.MaxInt32))
	}
	if req.Temperature != 0 {
		t := float32(req.Temperature)
		config.Temperature = &t
	}
	if req.TopP != 0 {
		tp := float32(req.TopP)
		config.TopP = &tp
	}
	if len(req.Tools) > 0 {
		config.Tools = convertTools(req.Tools)
	}
	return config
}

func convertTools(defs []provider.ToolDef) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		var schemaMap map[string]any
		if err := json.Unmarshal(d.InputSchema, &schemaMap); err != nil {
			continue
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  schemaFromJSON(schemaMap),
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// schemaFromJSON recursively converts a decoded JSON Schema document into
// genai's Schema shape, the subset Gemini function declarations accept.
func schemaFromJSON(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	schema := &genai.Schema{}

	if t, ok := m["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := m["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = schemaFromJSON(propMap)
			}
		}
	}
	if required, ok := m["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		schema.Items = schemaFromJSON(items)
	}
	return schema
}

func convertResponse(resp *genai.GenerateContentResponse) *provider.Response {
	out := &provider.Response{StopReason: models.StopEndTurn}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch {
			case part.Text != "":
				out.Content = append(out.Content, models.NewTextBlock(part.Text))
			case part.FunctionCall != nil:
				args, _ := json.Marshal(part.FunctionCall.Args)
				out.Content = append(out.Content, models.NewToolUseBlock(generateCallID(part.FunctionCall.Name), part.FunctionCall.Name, args))
			}
		}
	}

	switch candidate.FinishReason {
	case genai.FinishReasonMaxTokens:
		out.StopReason = models.StopMaxTokens
	case genai.FinishReasonStop:
		if hasToolCall(out.Content) {
			out.StopReason = models.StopToolUse
		} else {
			out.StopReason = models.StopEndTurn
		}
	default:
		if hasToolCall(out.Content) {
			out.StopReason = models.StopToolUse
		}
	}
	return out
}

func hasToolCall(blocks []models.ContentBlock) bool {
	for _, b := range blocks {
		if b.Type == models.BlockToolUse {
			return true
		}
	}
	return false
}

// generateCallID synthesizes a tool-use id, since Gemini's FunctionCall part
// carries no id of its own.
func generateCallID(name string) string {
	return fmt.Sprintf("call_%s_%d", name, time.Now().UnixNano())
}
