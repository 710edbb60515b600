package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/program"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// scriptedClient replays a fixed queue of responses, falling back to a
// plain end_turn reply once exhausted.
type scriptedClient struct {
	responses []*provider.Response
	calls     int
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) CreateMessage(ctx context.Context, req provider.CreateRequest) (*provider.Response, error) {
	if c.calls >= len(c.responses) {
		return &provider.Response{Content: []models.ContentBlock{models.NewTextBlock("done")}, StopReason: models.StopEndTurn}, nil
	}
	r := c.responses[c.calls]
	c.calls++
	return r, nil
}

func (c *scriptedClient) CountTokens(ctx context.Context, req provider.CountTokensRequest) (*provider.CountTokensResponse, error) {
	return &provider.CountTokensResponse{InputTokens: 1}, nil
}

func mustCompile(t *testing.T, opts program.CompileOptions) *program.Program {
	t.Helper()
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-5"
	}
	if opts.Provider == "" {
		opts.Provider = "anthropic"
	}
	p, err := program.Compile(opts)
	require.NoError(t, err)
	return p
}

func mustStart(t *testing.T, prog *program.Program, client provider.Client) *process.Process {
	t.Helper()
	proc, err := process.Start(prog, client, process.EnvInfo{}, Register)
	require.NoError(t, err)
	return proc
}
