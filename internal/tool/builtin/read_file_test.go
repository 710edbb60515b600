package builtin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/internal/tool"
)

func TestReadFileReturnsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	r := tool.NewRegistry()
	require.NoError(t, registerReadFile(r))

	params, err := json.Marshal(map[string]string{"path": "notes.txt"})
	require.NoError(t, err)

	res := r.Call(context.Background(), "read_file", params)
	require.False(t, res.IsError)
	assert.Equal(t, "hello world", res.Content)
}

func TestReadFileRejectsEscapingPath(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	r := tool.NewRegistry()
	require.NoError(t, registerReadFile(r))

	params, err := json.Marshal(map[string]string{"path": "../../etc/passwd"})
	require.NoError(t, err)

	res := r.Call(context.Background(), "read_file", params)
	assert.True(t, res.IsError)
}
