package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

func TestConvertMessagesAppliesCacheControlToLastBlock(t *testing.T) {
	msgs := []models.Message{
		models.NewUserMessage(models.NewTextBlock("hello")),
		models.NewAssistantMessage(models.NewTextBlock("hi there")),
	}

	out, err := convertMessages(msgs, nil, true)
	require.NoError(t, err)
	require.Len(t, out, 2)

	last := out[1].Content[len(out[1].Content)-1]
	require.NotNil(t, last.OfText)
	assert.Equal(t, "ephemeral", string(last.OfText.CacheControl.Type))

	first := out[0].Content[0]
	assert.Empty(t, string(first.OfText.CacheControl.Type), "only the last message gets a cache marker absent explicit breakpoints")
}

func TestConvertMessagesHonorsExplicitBreakpoint(t *testing.T) {
	msgs := []models.Message{
		models.NewUserMessage(models.NewTextBlock("turn 1")),
		models.NewAssistantMessage(models.NewTextBlock("reply 1")),
		models.NewUserMessage(models.NewTextBlock("turn 2")),
	}

	out, err := convertMessages(msgs, []int{0}, true)
	require.NoError(t, err)
	assert.Equal(t, "ephemeral", string(out[0].Content[0].OfText.CacheControl.Type))
}

func TestConvertMessagesCachingDisabledSkipsAllMarkers(t *testing.T) {
	msgs := []models.Message{
		models.NewUserMessage(models.NewTextBlock("turn 1")),
		models.NewAssistantMessage(models.NewTextBlock("reply 1")),
	}

	out, err := convertMessages(msgs, []int{0}, false)
	require.NoError(t, err)
	assert.Empty(t, string(out[0].Content[0].OfText.CacheControl.Type))
	assert.Empty(t, string(out[1].Content[0].OfText.CacheControl.Type))
}

func TestConvertToolsMarksLastDefinitionOnly(t *testing.T) {
	defs := []provider.ToolDef{
		{Name: "calculator", Description: "adds numbers", InputSchema: []byte(`{"type":"object"}`)},
		{Name: "read_file", Description: "reads a file", InputSchema: []byte(`{"type":"object"}`)},
	}
	out, err := convertTools(defs, true)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Empty(t, string(out[0].OfTool.CacheControl.Type))
	assert.Equal(t, "ephemeral", string(out[1].OfTool.CacheControl.Type))
}

func TestConvertToolsCachingDisabledMarksNone(t *testing.T) {
	defs := []provider.ToolDef{
		{Name: "calculator", Description: "adds numbers", InputSchema: []byte(`{"type":"object"}`)},
	}
	out, err := convertTools(defs, false)
	require.NoError(t, err)
	assert.Empty(t, string(out[0].OfTool.CacheControl.Type))
}

func TestConvertContentBlocksRoundTripsToolUseAndResult(t *testing.T) {
	blocks := []models.ContentBlock{
		models.NewToolUseBlock("tu_1", "calculator", []byte(`{"expression":"2+2"}`)),
	}
	out, err := convertContentBlocks(blocks)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].OfToolUse)
	assert.Equal(t, "tu_1", out[0].OfToolUse.ID)
	assert.Equal(t, "calculator", out[0].OfToolUse.Name)

	resultBlocks := []models.ContentBlock{
		models.NewToolResultBlock("tu_1", "4", false),
	}
	out, err = convertContentBlocks(resultBlocks)
	require.NoError(t, err)
	require.NotNil(t, out[0].OfToolResult)
	assert.Equal(t, "tu_1", out[0].OfToolResult.ToolUseID)
}
