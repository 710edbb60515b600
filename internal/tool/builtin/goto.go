package builtin

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/tool"
)

type gotoTool struct{ p *process.Process }

func registerGoto(r *tool.Registry, p *process.Process) {
	r.Register(gotoTool{p: p})
}

func (gotoTool) Name() string { return "goto" }

func (gotoTool) Description() string {
	return "Rewinds the conversation to an earlier message position, dropping everything after it, and replaces it with a new message wrapped for the model's awareness."
}

func (gotoTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"position":{"type":"integer","minimum":0},"message":{"type":"string"}},"required":["position","message"]}`)
}

func (g gotoTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args struct {
		Position int    `json:"position"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return tool.ErrorResult("goto: invalid arguments: %v", err), nil
	}

	if err := g.p.Goto(args.Position, args.Message); err != nil {
		return tool.ErrorResult("%v", err), nil
	}
	return &tool.Result{Content: "rewound conversation to message position " + strconv.Itoa(args.Position)}, nil
}
