// Package builtin registers the built-in tools named in spec §4.3/§4.5:
// calculator, read_file, and list_dir are plain, process-independent
// function-derived tools (built via funcschema.FromFunc); fork, spawn, goto,
// read_fd, and fd_to_file close over a concrete *process.Process, since they
// mutate or read that process's own state and FD manager.
//
// Register is the package's process.ToolBinder implementation. process
// cannot import this package (builtin imports process), so callers that
// instantiate a Process (cmd/llmproc, tests) pass builtin.Register in as the
// binder explicitly.
package builtin

import (
	"fmt"

	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/tool"
)

// Register builds a fresh tool.Manager for p, wiring every built-in named in
// p.Program().Tools.Builtins and the declared aliases. It matches
// process.ToolBinder's signature.
func Register(p *process.Process) (*tool.Manager, error) {
	mgr := tool.NewManager()
	r := mgr.Registry()

	for _, name := range p.Program().Tools.Builtins {
		switch name {
		case "calculator":
			if err := registerCalculator(r); err != nil {
				return nil, fmt.Errorf("builtin: registering calculator: %w", err)
			}
		case "read_file":
			if err := registerReadFile(r); err != nil {
				return nil, fmt.Errorf("builtin: registering read_file: %w", err)
			}
		case "list_dir":
			if err := registerListDir(r); err != nil {
				return nil, fmt.Errorf("builtin: registering list_dir: %w", err)
			}
		case "fork":
			registerFork(r, p)
		case "spawn":
			registerSpawn(r, p)
		case "goto":
			registerGoto(r, p)
		case "read_fd":
			registerReadFD(r, p)
		case "fd_to_file":
			registerFDToFile(r, p)
		default:
			return nil, fmt.Errorf("builtin: unknown built-in tool %q", name)
		}
	}

	for alias, canonical := range p.Program().Tools.Aliases {
		mgr.Alias(alias, canonical)
	}

	if err := attachMCPAggregators(mgr, p.Program().Tools.MCPServers); err != nil {
		return nil, err
	}

	return mgr, nil
}
