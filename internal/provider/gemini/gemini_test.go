package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestConvertMessagesRoundTripsToolCall(t *testing.T) {
	msgs := []models.Message{
		models.NewUserMessage(models.NewTextBlock("what is 2+2?")),
		models.NewAssistantMessage(models.NewToolUseBlock("tc_1", "calculator", []byte(`{"expression":"2+2"}`))),
		models.NewUserMessage(models.NewToolResultBlock("tc_1", `{"value":4}`, false)),
	}

	out := convertMessages(msgs)
	require.Len(t, out, 3)
	assert.Equal(t, genai.RoleUser, out[0].Role)
	assert.Equal(t, genai.RoleModel, out[1].Role)
	require.NotNil(t, out[1].Parts[0].FunctionCall)
	assert.Equal(t, "calculator", out[1].Parts[0].FunctionCall.Name)

	require.NotNil(t, out[2].Parts[0].FunctionResponse)
	assert.Equal(t, "calculator", out[2].Parts[0].FunctionResponse.Name)
	assert.Equal(t, float64(4), out[2].Parts[0].FunctionResponse.Response["value"])
}

func TestConvertMessagesToolResultFallsBackToTextWrapper(t *testing.T) {
	msgs := []models.Message{
		models.NewAssistantMessage(models.NewToolUseBlock("tc_1", "search", []byte(`{}`))),
		models.NewUserMessage(models.NewToolResultBlock("tc_1", "not json", true)),
	}

	out := convertMessages(msgs)
	require.Len(t, out, 2)
	resp := out[1].Parts[0].FunctionResponse.Response
	assert.Equal(t, "not json", resp["result"])
	assert.Equal(t, true, resp["error"])
}

func TestSchemaFromJSONConvertsNestedObject(t *testing.T) {
	m := map[string]any{
		"type":     "object",
		"required": []any{"expression"},
		"properties": map[string]any{
			"expression": map[string]any{"type": "string"},
			"options": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}

	schema := schemaFromJSON(m)
	assert.Equal(t, genai.Type("OBJECT"), schema.Type)
	assert.Equal(t, []string{"expression"}, schema.Required)
	assert.Equal(t, genai.Type("STRING"), schema.Properties["expression"].Type)
	assert.Equal(t, genai.Type("ARRAY"), schema.Properties["options"].Type)
	assert.Equal(t, genai.Type("STRING"), schema.Properties["options"].Items.Type)
}

func TestBuildConfigSetsSystemInstructionAndTools(t *testing.T) {
	req := provider.CreateRequest{
		System:    "be terse",
		MaxTokens: 512,
		Tools: []provider.ToolDef{
			{Name: "calculator", Description: "evaluates expressions", InputSchema: []byte(`{"type":"object"}`)},
		},
	}

	cfg := buildConfig(req)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "be terse", cfg.SystemInstruction.Parts[0].Text)
	assert.EqualValues(t, 512, cfg.MaxOutputTokens)
	require.Len(t, cfg.Tools, 1)
	assert.Equal(t, "calculator", cfg.Tools[0].FunctionDeclarations[0].Name)
}

func TestConvertResponseDetectsToolUseStop(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				FinishReason: genai.FinishReasonStop,
				Content: &genai.Content{
					Parts: []*genai.Part{
						{FunctionCall: &genai.FunctionCall{Name: "calculator", Args: map[string]any{"expression": "2+2"}}},
					},
				},
			},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5},
	}

	out := convertResponse(resp)
	assert.Equal(t, models.StopToolUse, out.StopReason)
	assert.Equal(t, 10, out.Usage.InputTokens)
	assert.Equal(t, 5, out.Usage.OutputTokens)
	require.Len(t, out.Content, 1)
	assert.Equal(t, models.BlockToolUse, out.Content[0].Type)
}

func TestConvertResponseMaxTokens(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				FinishReason: genai.FinishReasonMaxTokens,
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "partial"}}},
			},
		},
	}

	out := convertResponse(resp)
	assert.Equal(t, models.StopMaxTokens, out.StopReason)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errFromString("429 resource exhausted")))
	assert.False(t, isRetryable(errFromString("invalid argument")))
}

type stringError string

func (e stringError) Error() string { return string(e) }

func errFromString(s string) error { return stringError(s) }
