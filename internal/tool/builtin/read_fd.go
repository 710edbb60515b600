package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/llmproc/llmproc-go/internal/fd"
	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/tool"
)

type readFDTool struct{ p *process.Process }

func registerReadFD(r *tool.Registry, p *process.Process) {
	r.Register(readFDTool{p: p})
}

func (readFDTool) Name() string { return "read_fd" }

func (readFDTool) Description() string {
	return "Reads content stored in a file descriptor, by page, line range, character range, or in full, optionally extracting the read slice into a new file descriptor."
}

func (readFDTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"fd":{"type":"string"},"mode":{"type":"string","enum":["page","line","char","all"]},"page":{"type":"integer"},"start_line":{"type":"integer"},"end_line":{"type":"integer"},"start_char":{"type":"integer"},"end_char":{"type":"integer"},"extract_to_new_fd":{"type":"string"}},"required":["fd"]}`)
}

func (t readFDTool) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args struct {
		FD             string `json:"fd"`
		Mode           string `json:"mode"`
		Page           int    `json:"page"`
		StartLine      int    `json:"start_line"`
		EndLine        int    `json:"end_line"`
		StartChar      int    `json:"start_char"`
		EndChar        int    `json:"end_char"`
		ExtractToNewFD string `json:"extract_to_new_fd"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return tool.ErrorResult("read_fd: invalid arguments: %v", err), nil
	}

	opts := fd.ReadOptions{
		Mode:           fd.ReadMode(args.Mode),
		Page:           args.Page,
		StartLine:      args.StartLine,
		EndLine:        args.EndLine,
		StartChar:      args.StartChar,
		EndChar:        args.EndChar,
		ExtractToNewFD: args.ExtractToNewFD,
	}

	res, err := t.p.FDManager().Read(args.FD, opts)
	if err != nil {
		return &tool.Result{Content: renderFDError(err, args.FD), IsError: true}, nil
	}
	return &tool.Result{Content: renderFDContent(args.FD, opts, res)}, nil
}

// renderFDContent renders a read result as the <fd_content> wire block (spec
// §6 "External interfaces"). page is only meaningful for page-mode reads;
// other modes report 0.
func renderFDContent(id string, opts fd.ReadOptions, res fd.ReadResult) string {
	page := 0
	if opts.Mode == "" || opts.Mode == fd.ModePage {
		page = opts.Page
		if page == 0 {
			page = 1
		}
	}
	extra := ""
	if res.ExtractedFD != "" {
		extra = fmt.Sprintf(" extracted_fd=%q", res.ExtractedFD)
	}
	return fmt.Sprintf(
		"<fd_content fd=%q page=\"%d\" pages=\"%d\" continued=\"%t\" truncated=\"%t\" lines=\"%d-%d\" total_lines=\"%d\"%s>\n%s\n</fd_content>",
		id, page, res.TotalPages, res.Continued, res.Truncated, res.StartLine, res.EndLine, res.TotalLines, extra, res.Data,
	)
}

// renderFDError renders a failed FD operation as the <fd_error> wire block.
func renderFDError(err error, id string) string {
	kind := "io_error"
	switch err.(type) {
	case *fd.ErrNotFound:
		kind = "not_found"
	case *fd.ErrInvalidRange:
		kind = "invalid_range"
	case *fd.ErrFileExists:
		kind = "file_exists"
	case *fd.ErrFileMissing:
		kind = "file_missing"
	}
	return fmt.Sprintf("<fd_error type=%q fd=%q>\n  <message>%s</message>\n</fd_error>", kind, id, err.Error())
}
