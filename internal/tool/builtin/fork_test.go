package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/internal/program"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

func TestForkToolJoinsBranchReplies(t *testing.T) {
	prog := mustCompile(t, program.CompileOptions{Tools: program.ToolConfig{Builtins: []string{"fork"}}})
	client := &scriptedClient{responses: []*provider.Response{
		{Content: []models.ContentBlock{models.NewTextBlock("branch a done")}, StopReason: models.StopEndTurn},
		{Content: []models.ContentBlock{models.NewTextBlock("branch b done")}, StopReason: models.StopEndTurn},
	}}
	proc := mustStart(t, prog, client)

	params, err := json.Marshal(map[string]any{"prompts": []string{"a", "b"}})
	require.NoError(t, err)

	res := proc.Tools().Call(context.Background(), "fork", params)
	require.False(t, res.IsError)
	assert.Equal(t, "branch a done\n\n---\n\nbranch b done", res.Content)
}

func TestForkToolRejectsEmptyPrompts(t *testing.T) {
	prog := mustCompile(t, program.CompileOptions{Tools: program.ToolConfig{Builtins: []string{"fork"}}})
	proc := mustStart(t, prog, &scriptedClient{})

	res := proc.Tools().Call(context.Background(), "fork", json.RawMessage(`{"prompts":[]}`))
	assert.True(t, res.IsError)
}
