// Package config loads a Program from a YAML (or JSON/JSON5) file, resolving
// $include directives and linked-program references into internal/program's
// CompileOptions (spec §3 "Program", SPEC_FULL §11 config loading).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/llmproc/llmproc-go/internal/program"
)

// toolFetchTimeoutEnv names the environment variable a loader may consult
// for the default MCP tool-call ceiling (spec §5 "Timeouts", §6
// "Environment variables"). The runtime core never reads it directly; only
// Load, as a loader opting in, does.
const toolFetchTimeoutEnv = "LLMPROC_TOOL_FETCH_TIMEOUT"

// Config is the on-disk shape of one program definition.
type Config struct {
	Name              string          `yaml:"name"`
	Model             string          `yaml:"model"`
	Provider          string          `yaml:"provider"`
	BaseSystemPrompt  string          `yaml:"system_prompt"`
	PreloadPaths      []string        `yaml:"preload"`
	InitialUserPrompt string          `yaml:"prompt"`
	Tools             ToolsConfig     `yaml:"tools"`
	LinkedPrograms    map[string]Link `yaml:"linked_programs"`
	Params            ParamsConfig    `yaml:"parameters"`
}

// ToolsConfig mirrors program.ToolConfig in a yaml-friendly shape.
type ToolsConfig struct {
	Builtins       []string             `yaml:"builtins"`
	Aliases        map[string]string    `yaml:"aliases"`
	MCPServers     []MCPServerConfig    `yaml:"mcp_servers"`
	FileDescriptor FileDescriptorConfig `yaml:"file_descriptor"`
}

// FileDescriptorConfig mirrors the fd.Config fields program.ToolConfig
// carries directly.
type FileDescriptorConfig struct {
	Enabled               bool `yaml:"enabled"`
	PageSize              int  `yaml:"page_size"`
	MaxDirectOutputChars  int  `yaml:"max_direct_output_chars"`
	PageUserInput         bool `yaml:"page_user_input"`
}

// MCPServerConfig mirrors program.MCPServerConfig.
type MCPServerConfig struct {
	Name      string   `yaml:"name"`
	Transport string   `yaml:"transport"`
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args"`
	URL       string   `yaml:"url"`

	// Timeout overrides the process-wide default (LLMPROC_TOOL_FETCH_TIMEOUT
	// or program.DefaultMCPToolFetchTimeout) for this server only. Accepts a
	// Go duration string ("45s") or a bare number of seconds ("45").
	Timeout string `yaml:"timeout"`
}

// Link names another program definition file reachable via the spawn
// control tool, resolved relative to the referencing file's directory.
type Link struct {
	Path        string `yaml:"path"`
	Description string `yaml:"description"`
}

// ParamsConfig mirrors program.RuntimeParams.
type ParamsConfig struct {
	MaxTokens               int     `yaml:"max_tokens"`
	Temperature             float64 `yaml:"temperature"`
	TopP                    float64 `yaml:"top_p"`
	ThinkingBudget          int     `yaml:"thinking_budget"`
	DisableAutomaticCaching bool    `yaml:"disable_automatic_caching"`
	CostLimitUSD            float64 `yaml:"cost_limit_usd"`
	MaxIterations           int     `yaml:"max_iterations"`
	ReasoningEffort         string  `yaml:"reasoning_effort"`
}

// Load reads path (resolving $include directives), decodes it into a
// Config, recursively loads every linked program, and compiles the result
// into a *program.Program.
func Load(path string) (*program.Program, error) {
	return loadRecursive(path, map[string]bool{})
}

func loadRecursive(path string, loading map[string]bool) (*program.Program, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolving %q: %w", path, err)
	}
	if loading[absPath] {
		return nil, fmt.Errorf("config: cyclic linked-program reference at %s", absPath)
	}
	loading[absPath] = true
	defer delete(loading, absPath)

	raw, err := LoadRaw(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", absPath, err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", absPath, err)
	}

	opts := program.CompileOptions{
		Name:              cfg.Name,
		Model:             cfg.Model,
		Provider:          cfg.Provider,
		BaseSystemPrompt:  cfg.BaseSystemPrompt,
		PreloadPaths:      resolvePaths(filepath.Dir(absPath), cfg.PreloadPaths),
		InitialUserPrompt: cfg.InitialUserPrompt,
		Tools: program.ToolConfig{
			Builtins:               cfg.Tools.Builtins,
			Aliases:                cfg.Tools.Aliases,
			FileDescriptorEnabled:  cfg.Tools.FileDescriptor.Enabled,
			FDPageSize:             cfg.Tools.FileDescriptor.PageSize,
			FDMaxDirectOutputChars: cfg.Tools.FileDescriptor.MaxDirectOutputChars,
			FDPageUserInput:        cfg.Tools.FileDescriptor.PageUserInput,
			MCPServers:             convertMCPServers(cfg.Tools.MCPServers, defaultToolFetchTimeout()),
		},
		Params: program.RuntimeParams{
			MaxTokens:               cfg.Params.MaxTokens,
			Temperature:             cfg.Params.Temperature,
			TopP:                    cfg.Params.TopP,
			ThinkingBudget:          cfg.Params.ThinkingBudget,
			DisableAutomaticCaching: cfg.Params.DisableAutomaticCaching,
			CostLimitUSD:            cfg.Params.CostLimitUSD,
			MaxIterations:           cfg.Params.MaxIterations,
			ReasoningEffort:         cfg.Params.ReasoningEffort,
		},
	}

	if len(cfg.LinkedPrograms) > 0 {
		opts.LinkedPrograms = make(map[string]program.LinkedProgram, len(cfg.LinkedPrograms))
		for name, link := range cfg.LinkedPrograms {
			linkPath := link.Path
			if !filepath.IsAbs(linkPath) {
				linkPath = filepath.Join(filepath.Dir(absPath), linkPath)
			}
			linked, err := loadRecursive(linkPath, loading)
			if err != nil {
				return nil, fmt.Errorf("config: linked program %q: %w", name, err)
			}
			opts.LinkedPrograms[name] = program.LinkedProgram{Program: linked, Description: link.Description}
		}
	}

	return program.Compile(opts)
}

func resolvePaths(baseDir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(baseDir, p)
	}
	return out
}

func convertMCPServers(in []MCPServerConfig, defaultTimeout time.Duration) []program.MCPServerConfig {
	if len(in) == 0 {
		return nil
	}
	out := make([]program.MCPServerConfig, len(in))
	for i, s := range in {
		timeout := defaultTimeout
		if s.Timeout != "" {
			if d, err := parseTimeout(s.Timeout); err == nil {
				timeout = d
			}
		}
		out[i] = program.MCPServerConfig{
			Name:      s.Name,
			Transport: s.Transport,
			Command:   s.Command,
			Args:      s.Args,
			URL:       s.URL,
			Timeout:   timeout,
		}
	}
	return out
}

// defaultToolFetchTimeout reads LLMPROC_TOOL_FETCH_TIMEOUT, the process-wide
// MCP tool-call ceiling (spec §5, §6). The runtime core never reads
// environment directly; Load is the loader that opts in on its behalf.
func defaultToolFetchTimeout() time.Duration {
	raw := os.Getenv(toolFetchTimeoutEnv)
	if raw == "" {
		return program.DefaultMCPToolFetchTimeout
	}
	d, err := parseTimeout(raw)
	if err != nil {
		return program.DefaultMCPToolFetchTimeout
	}
	return d
}

// parseTimeout accepts a Go duration string ("45s") or a bare number of
// seconds ("45", "1.5").
func parseTimeout(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid timeout %q", raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
