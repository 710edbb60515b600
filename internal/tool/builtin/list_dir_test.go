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

func TestListDirListsEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	r := tool.NewRegistry()
	require.NoError(t, registerListDir(r))

	res := r.Call(context.Background(), "list_dir", json.RawMessage(`{}`))
	require.False(t, res.IsError)
	assert.Contains(t, res.Content, "a.txt")
	assert.Contains(t, res.Content, "sub/")
}
