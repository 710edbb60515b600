// Package tool defines the registry and manager that compose a process's
// available tools from built-ins, function-derived handlers, and MCP
// aggregators, and dispatch calls emitted by the model. See spec §4.2-4.3.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a single callable exposed to the model.
//
// Implementations are typically built by builtin.Register* helpers or by
// funcschema.FromFunc for function-derived tools; MCP-aggregated tools are
// adapted by toolmcp.
type Tool interface {
	// Name returns the tool name for LLM function calling. Must be a valid
	// function name (alphanumeric, underscores).
	Name() string

	// Description returns a natural language description of what the tool
	// does, shown to the model.
	Description() string

	// Schema returns the JSON Schema defining the tool's parameters.
	Schema() json.RawMessage

	// Execute runs the tool with the given JSON parameters, which match the
	// shape described by Schema.
	Execute(ctx context.Context, params json.RawMessage) (*Result, error)
}

// Result is the outcome of one tool execution, independent of its eventual
// ContentBlock wire form.
type Result struct {
	Content string
	IsError bool
}

// ErrorResult is a convenience constructor for a failed Result.
func ErrorResult(format string, args ...any) *Result {
	return &Result{Content: fmt.Sprintf(format, args...), IsError: true}
}
