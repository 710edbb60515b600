package builtin

import (
	"context"
	"encoding/json"

	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/tool"
)

type spawnTool struct{ p *process.Process }

func registerSpawn(r *tool.Registry, p *process.Process) {
	r.Register(spawnTool{p: p})
}

func (spawnTool) Name() string { return "spawn" }

func (spawnTool) Description() string {
	return "Runs a query against a linked program, instantiating it on first use and reusing the same instance across subsequent spawns of the same program, and returns its final reply."
}

func (spawnTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"program_name":{"type":"string"},"query":{"type":"string"},"additional_preload_files":{"type":"array","items":{"type":"string"}},"additional_preload_fds":{"type":"array","items":{"type":"string"}}},"required":["program_name","query"]}`)
}

func (s spawnTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args struct {
		ProgramName            string   `json:"program_name"`
		Query                  string   `json:"query"`
		AdditionalPreloadFiles []string `json:"additional_preload_files"`
		AdditionalPreloadFDs   []string `json:"additional_preload_fds"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return tool.ErrorResult("spawn: invalid arguments: %v", err), nil
	}

	reply, err := s.p.SpawnChild(ctx, args.ProgramName, args.Query, args.AdditionalPreloadFiles, args.AdditionalPreloadFDs)
	if err != nil {
		return tool.ErrorResult("%v", err), nil
	}
	return &tool.Result{Content: reply}, nil
}
