package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/internal/fd"
	"github.com/llmproc/llmproc-go/internal/program"
)

func TestReadFDToolReadsAllMode(t *testing.T) {
	prog := mustCompile(t, program.CompileOptions{
		Tools: program.ToolConfig{FileDescriptorEnabled: true, Builtins: []string{"read_fd", "fd_to_file"}},
	})
	proc := mustStart(t, prog, &scriptedClient{})

	id := proc.FDManager().Create("line one\nline two\n", fd.SourceToolResult)

	params, err := json.Marshal(map[string]string{"fd": id, "mode": "all"})
	require.NoError(t, err)

	res := proc.Tools().Call(context.Background(), "read_fd", params)
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "<fd_content")
	assert.Contains(t, res.Content, "line one\nline two\n")
}

func TestReadFDToolReportsNotFoundError(t *testing.T) {
	prog := mustCompile(t, program.CompileOptions{
		Tools: program.ToolConfig{FileDescriptorEnabled: true, Builtins: []string{"read_fd", "fd_to_file"}},
	})
	proc := mustStart(t, prog, &scriptedClient{})

	res := proc.Tools().Call(context.Background(), "read_fd", json.RawMessage(`{"fd":"fd:missing"}`))
	require.True(t, res.IsError)
	assert.Contains(t, res.Content, "<fd_error")
	assert.Contains(t, res.Content, `type="not_found"`)
}

func TestReadFDToolExtractsToNewFD(t *testing.T) {
	prog := mustCompile(t, program.CompileOptions{
		Tools: program.ToolConfig{FileDescriptorEnabled: true, Builtins: []string{"read_fd", "fd_to_file"}},
	})
	proc := mustStart(t, prog, &scriptedClient{})

	id := proc.FDManager().Create("abcdef", fd.SourceToolResult)
	params, err := json.Marshal(map[string]any{"fd": id, "mode": "char", "start_char": 0, "end_char": 3, "extract_to_new_fd": "slice"})
	require.NoError(t, err)

	res := proc.Tools().Call(context.Background(), "read_fd", params)
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "extracted_fd=")
}
