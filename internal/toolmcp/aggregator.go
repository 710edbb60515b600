package toolmcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/llmproc/llmproc-go/internal/tool"
)

// Aggregator adapts a Manager's connected servers to tool.Aggregator,
// prefixing every tool name "<server>__<tool>" (spec §4.6). Collisions
// across servers cannot occur since the prefix is unique per server.
type Aggregator struct {
	mgr *Manager
}

// NewAggregator wraps mgr as a tool.Aggregator.
func NewAggregator(mgr *Manager) *Aggregator {
	return &Aggregator{mgr: mgr}
}

const namePrefixSep = "__"

func prefixedName(serverID, toolName string) string {
	return serverID + namePrefixSep + toolName
}

// ListTools implements tool.Aggregator.
func (a *Aggregator) ListTools(ctx context.Context) ([]tool.Schema, error) {
	var out []tool.Schema
	for serverID, client := range a.mgr.Clients() {
		for _, t := range client.Tools() {
			out = append(out, tool.Schema{
				Name:        prefixedName(serverID, t.Name),
				Description: t.Description,
				InputSchema: tool.AssertSchemaNonNil(t.InputSchema),
			})
		}
	}
	return out, nil
}

// Call implements tool.Aggregator: splits prefixedName back into its server
// and tool parts and dispatches through the matching client.
func (a *Aggregator) Call(ctx context.Context, prefixedName string, args json.RawMessage) (*tool.Result, error) {
	serverID, toolName, err := splitPrefixedName(prefixedName)
	if err != nil {
		return tool.ErrorResult("%v", err), nil
	}

	var params map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return tool.ErrorResult("mcp: invalid arguments for %q: %v", prefixedName, err), nil
		}
	}

	res, err := a.mgr.CallTool(ctx, serverID, toolName, params)
	if err != nil {
		return tool.ErrorResult("mcp: calling %q on server %q: %v", toolName, serverID, err), nil
	}
	return toolResultFromCallResult(res), nil
}

func splitPrefixedName(name string) (serverID, toolName string, err error) {
	for i := 0; i+len(namePrefixSep) <= len(name); i++ {
		if name[i:i+len(namePrefixSep)] == namePrefixSep {
			return name[:i], name[i+len(namePrefixSep):], nil
		}
	}
	return "", "", fmt.Errorf("mcp: %q is not a prefixed server__tool name", name)
}

// toolResultFromCallResult concatenates an MCP tool call's text content
// blocks into a single tool.Result; non-text content (images, embedded
// resources) is summarized by type rather than dropped silently.
func toolResultFromCallResult(res *ToolCallResult) *tool.Result {
	var text string
	for _, c := range res.Content {
		switch c.Type {
		case "text":
			text += c.Text
		default:
			text += fmt.Sprintf("[%s content omitted]", c.Type)
		}
	}
	return &tool.Result{Content: text, IsError: res.IsError}
}
