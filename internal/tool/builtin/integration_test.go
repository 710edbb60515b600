package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/internal/program"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// TestRunReadFileToolAutoWrapsOversizedResultIntoFD drives a full
// process.Run loop through Register's real read_file tool: the model asks to
// read a file bigger than the FD manager's inline-size threshold, the
// executor auto-wraps the result into a file descriptor (spec §4.1), and the
// model's second turn references it before finishing.
func TestRunReadFileToolAutoWrapsOversizedResultIntoFD(t *testing.T) {
	t.Chdir(t.TempDir())

	big := strings.Repeat("line of file content\n", 1000) // well over the 8000-char threshold
	require.NoError(t, os.WriteFile(filepath.Join(".", "big.txt"), []byte(big), 0o644))

	readArgs, err := json.Marshal(map[string]string{"path": "big.txt"})
	require.NoError(t, err)

	client := &scriptedClient{responses: []*provider.Response{
		{
			Content:    []models.ContentBlock{models.NewToolUseBlock("tu_1", "read_file", readArgs)},
			StopReason: models.StopToolUse,
		},
		{
			Content:    []models.ContentBlock{models.NewTextBlock("the file was large, so I read it via its descriptor")},
			StopReason: models.StopEndTurn,
		},
	}}

	prog := mustCompile(t, program.CompileOptions{
		Tools: program.ToolConfig{FileDescriptorEnabled: true, Builtins: []string{"read_file", "read_fd", "fd_to_file"}},
	})
	proc := mustStart(t, prog, client)

	rr, err := proc.Run(context.Background(), "read big.txt for me")
	require.NoError(t, err)
	assert.Equal(t, models.StopEndTurn, rr.StopReason)

	require.Len(t, rr.ToolCalls, 1)
	call := rr.ToolCalls[0]
	assert.Equal(t, "read_file", call.Name)
	assert.False(t, call.IsError)
	assert.Contains(t, call.Result, "<fd_result")
	assert.Contains(t, call.Result, "content exceeded inline size limit")

	assert.Equal(t, 1, proc.FDManager().Len())

	msgs := proc.State().Messages()
	require.Len(t, msgs, 4) // user prompt, assistant tool_use, user tool_result, assistant final
	require.Len(t, msgs[2].Content, 1)
	assert.Equal(t, "tu_1", msgs[2].Content[0].ToolResultForID)
	assert.Contains(t, msgs[2].Content[0].ToolResultText, "<fd_result")
}

// TestRunCalculatorToolRoundTripsSmallResultUnwrapped exercises the
// companion path: a small tool result stays inline and is never wrapped.
func TestRunCalculatorToolRoundTripsSmallResultUnwrapped(t *testing.T) {
	calcArgs, err := json.Marshal(map[string]string{"expression": "(2 + 3) * 4"})
	require.NoError(t, err)

	client := &scriptedClient{responses: []*provider.Response{
		{
			Content:    []models.ContentBlock{models.NewToolUseBlock("tu_1", "calculator", calcArgs)},
			StopReason: models.StopToolUse,
		},
		{
			Content:    []models.ContentBlock{models.NewTextBlock("the answer is 20")},
			StopReason: models.StopEndTurn,
		},
	}}

	prog := mustCompile(t, program.CompileOptions{
		Tools: program.ToolConfig{Builtins: []string{"calculator"}},
	})
	proc := mustStart(t, prog, client)

	rr, err := proc.Run(context.Background(), "what is (2 + 3) * 4?")
	require.NoError(t, err)
	assert.Equal(t, models.StopEndTurn, rr.StopReason)

	require.Len(t, rr.ToolCalls, 1)
	assert.Equal(t, "calculator", rr.ToolCalls[0].Name)
	assert.Equal(t, "20", rr.ToolCalls[0].Result)
	assert.Equal(t, 0, proc.FDManager().Len())
}

var _ provider.Client = (*scriptedClient)(nil)
