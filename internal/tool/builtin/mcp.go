package builtin

import (
	"context"
	"fmt"

	"github.com/llmproc/llmproc-go/internal/program"
	"github.com/llmproc/llmproc-go/internal/tool"
	"github.com/llmproc/llmproc-go/internal/toolmcp"
)

// attachMCPAggregators connects to every server in servers and attaches the
// resulting tool.Aggregator to mgr (spec §4.6). Matching toolmcp.Manager's
// own Start behavior, a server that fails to connect is skipped rather than
// failing the whole bind: an MCP outage shouldn't take down tools the
// program doesn't otherwise depend on.
func attachMCPAggregators(mgr *tool.Manager, servers []program.MCPServerConfig) error {
	if len(servers) == 0 {
		return nil
	}

	cfg := &toolmcp.Config{Enabled: true}
	for _, s := range servers {
		cfg.Servers = append(cfg.Servers, &toolmcp.ServerConfig{
			ID:        s.Name,
			Name:      s.Name,
			Transport: toolmcp.TransportType(s.Transport),
			Command:   s.Command,
			Args:      s.Args,
			URL:       s.URL,
			AutoStart: true,
			Timeout:   s.Timeout,
		})
	}

	toolmcpMgr := toolmcp.NewManager(cfg, nil)
	if err := toolmcpMgr.Start(context.Background()); err != nil {
		return fmt.Errorf("builtin: starting mcp servers: %w", err)
	}

	mgr.AddAggregator(toolmcp.NewAggregator(toolmcpMgr))
	return nil
}
