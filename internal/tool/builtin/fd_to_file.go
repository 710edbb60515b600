package builtin

import (
	"context"
	"encoding/json"

	"github.com/llmproc/llmproc-go/internal/fd"
	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/tool"
)

type fdToFileTool struct{ p *process.Process }

func registerFDToFile(r *tool.Registry, p *process.Process) {
	r.Register(fdToFileTool{p: p})
}

func (fdToFileTool) Name() string { return "fd_to_file" }

func (fdToFileTool) Description() string {
	return "Writes the full content of a file descriptor to a file on disk, in write or append mode."
}

func (fdToFileTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"fd":{"type":"string"},"path":{"type":"string"},"mode":{"type":"string","enum":["write","append"]},"create":{"type":"boolean"},"exist_ok":{"type":"boolean"}},"required":["fd","path"]}`)
}

func (t fdToFileTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args struct {
		FD      string `json:"fd"`
		Path    string `json:"path"`
		Mode    string `json:"mode"`
		Create  bool   `json:"create"`
		ExistOK bool   `json:"exist_ok"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return tool.ErrorResult("fd_to_file: invalid arguments: %v", err), nil
	}

	mode := fd.WriteModeWrite
	if args.Mode == string(fd.WriteModeAppend) {
		mode = fd.WriteModeAppend
	}

	err := t.p.FDManager().WriteToFile(args.FD, args.Path, fd.WriteToFileOptions{
		Mode:    mode,
		Create:  args.Create,
		ExistOK: args.ExistOK,
	})
	if err != nil {
		return &tool.Result{Content: renderFDError(err, args.FD), IsError: true}, nil
	}
	return &tool.Result{Content: "wrote fd " + args.FD + " to " + args.Path}, nil
}
