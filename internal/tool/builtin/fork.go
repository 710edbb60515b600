package builtin

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/tool"
)

type forkTool struct{ p *process.Process }

func registerFork(r *tool.Registry, p *process.Process) {
	r.Register(forkTool{p: p})
}

func (forkTool) Name() string { return "fork" }

func (forkTool) Description() string {
	return "Forks the current conversation into one or more independent branches, each continuing from a copy of the current state with the given prompt, and returns each branch's final reply."
}

func (forkTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"prompts":{"type":"array","items":{"type":"string"},"minItems":1}},"required":["prompts"]}`)
}

func (f forkTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args struct {
		Prompts []string `json:"prompts"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return tool.ErrorResult("fork: invalid arguments: %v", err), nil
	}
	if len(args.Prompts) == 0 {
		return tool.ErrorResult("fork: at least one prompt is required"), nil
	}

	replies, err := f.p.Fork(ctx, args.Prompts)
	if err != nil {
		return tool.ErrorResult("fork: %v", err), nil
	}
	return &tool.Result{Content: strings.Join(replies, "\n\n---\n\n")}, nil
}
