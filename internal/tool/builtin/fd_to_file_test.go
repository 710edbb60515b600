package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/internal/fd"
	"github.com/llmproc/llmproc-go/internal/program"
)

func TestFDToFileToolWritesContent(t *testing.T) {
	prog := mustCompile(t, program.CompileOptions{
		Tools: program.ToolConfig{FileDescriptorEnabled: true, Builtins: []string{"read_fd", "fd_to_file"}},
	})
	proc := mustStart(t, prog, &scriptedClient{})

	id := proc.FDManager().Create("exported content", fd.SourceToolResult)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	params, err := json.Marshal(map[string]any{"fd": id, "path": path, "mode": "write", "exist_ok": true})
	require.NoError(t, err)

	res := proc.Tools().Call(context.Background(), "fd_to_file", params)
	require.False(t, res.IsError)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "exported content", string(data))
}

func TestFDToFileToolReportsFileExistsError(t *testing.T) {
	prog := mustCompile(t, program.CompileOptions{
		Tools: program.ToolConfig{FileDescriptorEnabled: true, Builtins: []string{"read_fd", "fd_to_file"}},
	})
	proc := mustStart(t, prog, &scriptedClient{})

	id := proc.FDManager().Create("content", fd.SourceToolResult)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o644))

	params, err := json.Marshal(map[string]any{"fd": id, "path": path, "mode": "write", "exist_ok": false})
	require.NoError(t, err)

	res := proc.Tools().Call(context.Background(), "fd_to_file", params)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "file_exists")
}
