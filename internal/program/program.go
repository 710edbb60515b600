// Package program defines Program, the immutable compiled configuration a
// Process is instantiated from (spec §3, §4.3 "Program"). A Program never
// mutates after Compile returns; it may be shared read-only across any
// number of Processes, including forked children.
package program

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultMCPToolFetchTimeout is the per-call ceiling applied to MCP tool
// invocations when neither the program nor LLMPROC_TOOL_FETCH_TIMEOUT
// configure one explicitly (spec §5 "Timeouts").
const DefaultMCPToolFetchTimeout = 30 * time.Second

// ToolConfig describes which tools a Program enables and how.
type ToolConfig struct {
	// Builtins lists enabled built-in tool names (e.g. "calculator",
	// "read_file", "fork"), in the order they should be registered.
	Builtins []string

	// Aliases maps a canonical built-in/function-derived name to the name
	// exposed to the model, when different.
	Aliases map[string]string

	// MCPServers lists MCP server configurations to aggregate tools from.
	MCPServers []MCPServerConfig

	// FileDescriptorEnabled turns on the FD subsystem for processes started
	// from this Program.
	FileDescriptorEnabled bool

	// FDPageSize/FDMaxDirectOutputChars/FDPageUserInput mirror fd.Config;
	// zero values fall back to fd.DefaultConfig.
	FDPageSize             int
	FDMaxDirectOutputChars int
	FDPageUserInput        bool
}

// MCPServerConfig names one external MCP server and how to reach it.
type MCPServerConfig struct {
	Name      string
	Transport string // "stdio" or "http"
	Command   string
	Args      []string
	URL       string

	// Timeout bounds each tools/call request to this server. Zero means
	// DefaultMCPToolFetchTimeout applies (spec §5, §6
	// "LLMPROC_TOOL_FETCH_TIMEOUT").
	Timeout time.Duration
}

// LinkedProgram names a Program reachable via the spawn control tool.
type LinkedProgram struct {
	Program     *Program
	Description string
}

// RuntimeParams holds the provider-call tuning knobs a Program fixes at
// compile time.
type RuntimeParams struct {
	MaxTokens                int
	Temperature              float64
	TopP                     float64
	ThinkingBudget            int // 0 disables extended thinking
	DisableAutomaticCaching  bool
	CostLimitUSD             float64 // 0 disables the cost limit
	MaxIterations            int
	ReasoningEffort          string // OpenAI o-family: "low"|"medium"|"high"
}

// Program is the immutable, compiled description of one model configuration.
type Program struct {
	Name             string
	Model            string
	Provider         string // "anthropic", "anthropic-vertex", "openai", "gemini"
	BaseSystemPrompt string
	PreloadPaths     []string
	InitialUserPrompt string

	Tools           ToolConfig
	LinkedPrograms  map[string]LinkedProgram
	Params          RuntimeParams

	compiledAt time.Time
}

// CompileOptions carries the raw, not-yet-validated fields for Compile.
type CompileOptions struct {
	Name              string
	Model             string
	Provider          string
	BaseSystemPrompt  string
	PreloadPaths      []string
	InitialUserPrompt string
	Tools             ToolConfig
	LinkedPrograms    map[string]LinkedProgram
	Params            RuntimeParams
}

// Compile validates opts and returns an immutable Program, or a ConfigError-
// shaped error (spec §7) if validation fails. Validation here corresponds to
// the spec's "ConfigError ... fatal at compile; never reaches runtime".
func Compile(opts CompileOptions) (*Program, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("program: model is required")
	}
	switch opts.Provider {
	case "anthropic", "anthropic-vertex", "openai", "gemini":
	default:
		return nil, fmt.Errorf("program: unknown provider %q", opts.Provider)
	}
	if opts.Tools.FileDescriptorEnabled {
		hasRead := containsString(opts.Tools.Builtins, "read_fd")
		hasWrite := containsString(opts.Tools.Builtins, "fd_to_file")
		if !hasRead && !hasWrite {
			// Convenience auto-enable rule (spec §4.3): both FD tools are
			// turned on together when neither was declared explicitly.
			slog.Default().Warn("file_descriptor_enabled is set with no fd tools declared; auto-enabling read_fd and fd_to_file",
				"program", opts.Name)
			opts.Tools.Builtins = append(opts.Tools.Builtins, "read_fd", "fd_to_file")
		}
	}
	if err := checkLinkedProgramDAG(opts.Name, opts.LinkedPrograms, map[string]bool{}); err != nil {
		return nil, err
	}
	if opts.Params.ThinkingBudget > 0 && opts.Params.ThinkingBudget >= opts.Params.MaxTokens && opts.Params.MaxTokens > 0 {
		return nil, fmt.Errorf("program: thinking_budget (%d) must be less than max_tokens (%d)", opts.Params.ThinkingBudget, opts.Params.MaxTokens)
	}
	if opts.Params.MaxIterations <= 0 {
		opts.Params.MaxIterations = 10
	}

	linked := opts.LinkedPrograms
	if linked == nil {
		linked = map[string]LinkedProgram{}
	}

	return &Program{
		Name:              opts.Name,
		Model:             opts.Model,
		Provider:          opts.Provider,
		BaseSystemPrompt:  opts.BaseSystemPrompt,
		PreloadPaths:      opts.PreloadPaths,
		InitialUserPrompt: opts.InitialUserPrompt,
		Tools:             opts.Tools,
		LinkedPrograms:    linked,
		Params:            opts.Params,
		compiledAt:        time.Now(),
	}, nil
}

// CompiledAt reports when Compile produced this Program.
func (p *Program) CompiledAt() time.Time { return p.compiledAt }

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}

// checkLinkedProgramDAG walks the linked-program graph depth-first to reject
// cycles, which the spec requires be a ConfigError rather than a runtime
// stack overflow.
func checkLinkedProgramDAG(root string, linked map[string]LinkedProgram, visiting map[string]bool) error {
	if visiting[root] {
		return fmt.Errorf("program: cyclic linked-program graph at %q", root)
	}
	visiting[root] = true
	for name, lp := range linked {
		if lp.Program == nil {
			continue
		}
		if err := checkLinkedProgramDAG(name, lp.Program.LinkedPrograms, visiting); err != nil {
			return err
		}
	}
	delete(visiting, root)
	return nil
}
