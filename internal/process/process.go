// Package process implements Process, the mutable live instance of a
// compiled Program: conversation state, an exclusive file-descriptor
// manager, an exclusive tool manager, and a table of lazily-instantiated
// linked child processes (spec §3 "Process", §4.5 control tools).
package process

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/llmproc/llmproc-go/internal/executor"
	"github.com/llmproc/llmproc-go/internal/fd"
	"github.com/llmproc/llmproc-go/internal/program"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/internal/tool"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// ToolBinder builds a fresh, process-bound tool.Manager for p: built-in
// control tools (fork/spawn/goto/read_fd/fd_to_file/calculator/read_file/
// list_dir) and MCP aggregators, wired per p.Program().Tools.
//
// internal/tool/builtin registers handlers as closures over a concrete
// *Process (spec §4.3's literal "register(registry, process)" shape), which
// means builtin imports process. Process cannot import builtin back without
// creating a cycle, so the wiring layer (internal/tool/builtin itself, via
// cmd/llmproc) supplies its Register function as a ToolBinder instead. Start
// and every place that instantiates a child process (Fork, SpawnChild) call
// the same binder, so a process and all its descendants share one
// construction path.
type ToolBinder func(p *Process) (*tool.Manager, error)

// EnvInfo configures the optional <env> block appended to the enriched
// system prompt (spec §3 "environment-info blocks").
type EnvInfo struct {
	Enabled   bool
	Variables map[string]string
}

// Process is a live instance of a Program.
type Process struct {
	mu sync.Mutex // serializes top-level Run calls (spec §5 "Locking")

	id     string
	prog   *program.Program
	client provider.Client
	env    EnvInfo
	binder ToolBinder

	state *models.State
	fds   *fd.Manager
	tools *tool.Manager

	children map[string]*Process

	forkAllowed  bool
	systemPrompt string

	totalToolCalls int
	totalCostUSD   float64

	telemetry executor.Callbacks
}

// SetTelemetry installs cb's OnAPICall/OnToolCall/OnResponse hooks so Run
// reports every provider call and tool dispatch to an external recorder
// (e.g. internal/telemetry.ExecutorCallbacks) in addition to the process's
// own bookkeeping. cb.OnResponse, if both this and the process's internal
// callback set one, both fire.
func (p *Process) SetTelemetry(cb executor.Callbacks) { p.telemetry = cb }

// ID returns the process's unique identifier.
func (p *Process) ID() string { return p.id }

// Program implements executor.Target.
func (p *Process) Program() *program.Program { return p.prog }

// State implements executor.Target.
func (p *Process) State() *models.State { return p.state }

// FDManager implements executor.Target.
func (p *Process) FDManager() *fd.Manager { return p.fds }

// Tools implements executor.Target.
func (p *Process) Tools() *tool.Manager { return p.tools }

// ProviderClient implements executor.Target.
func (p *Process) ProviderClient() provider.Client { return p.client }

// EnrichedSystemPrompt implements executor.Target.
func (p *Process) EnrichedSystemPrompt() string { return p.systemPrompt }

// CanFork reports whether this process still holds fork permission (revoked
// on every child produced by Fork, per spec §4.5).
func (p *Process) CanFork() bool { return p.forkAllowed }

// Start instantiates prog as a new root Process: configures the FD manager,
// preloads PreloadPaths, computes the enriched system prompt once, binds
// tools via binder, and seeds an initial user turn if the Program declares
// one.
func Start(prog *program.Program, client provider.Client, env EnvInfo, binder ToolBinder) (*Process, error) {
	p := &Process{
		id:          uuid.NewString(),
		prog:        prog,
		client:      client,
		env:         env,
		binder:      binder,
		state:       models.NewState(),
		children:    make(map[string]*Process),
		forkAllowed: true,
	}

	p.fds = newFDManager(prog.Tools)

	preloaded, err := readPreloadFiles(prog.PreloadPaths)
	if err != nil {
		return nil, models.NewRunError(models.KindConfigError, "preloading files", err)
	}
	p.systemPrompt = buildEnrichedSystemPrompt(prog.BaseSystemPrompt, preloaded, env)

	tools, err := binder(p)
	if err != nil {
		return nil, models.NewRunError(models.KindConfigError, "binding tools", err)
	}
	p.tools = tools

	if prog.InitialUserPrompt != "" {
		if err := p.state.Append(models.NewUserMessage(models.NewTextBlock(prog.InitialUserPrompt))); err != nil {
			return nil, models.NewRunError(models.KindConfigError, "seeding initial user prompt", err)
		}
	}

	return p, nil
}

func newFDManager(cfg program.ToolConfig) *fd.Manager {
	if !cfg.FileDescriptorEnabled {
		return fd.New(fd.Config{})
	}
	return fd.New(fd.Config{
		PageSize:             cfg.FDPageSize,
		MaxDirectOutputChars: cfg.FDMaxDirectOutputChars,
		PageUserInput:        cfg.FDPageUserInput,
	})
}

type preloadedFile struct {
	Path    string
	Content string
}

func readPreloadFiles(paths []string) ([]preloadedFile, error) {
	out := make([]preloadedFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading preload file %q: %w", path, err)
		}
		out = append(out, preloadedFile{Path: path, Content: string(data)})
	}
	return out, nil
}

// buildEnrichedSystemPrompt concatenates base, each preloaded file wrapped
// in a <preload> block, and an optional <env> block (spec §3, SPEC_FULL
// §12.2).
func buildEnrichedSystemPrompt(base string, preloaded []preloadedFile, env EnvInfo) string {
	var b strings.Builder
	b.WriteString(base)
	for _, f := range preloaded {
		fmt.Fprintf(&b, "\n\n<preload path=%q>\n%s\n</preload>", f.Path, f.Content)
	}
	if env.Enabled {
		b.WriteString("\n\n")
		b.WriteString(renderEnvBlock(env))
	}
	return b.String()
}

func renderEnvBlock(env EnvInfo) string {
	cwd, _ := os.Getwd()
	var b strings.Builder
	b.WriteString("<env>\n")
	fmt.Fprintf(&b, "cwd: %s\n", cwd)
	fmt.Fprintf(&b, "platform: %s\n", runtime.GOOS)
	fmt.Fprintf(&b, "date: %s\n", time.Now().Format(time.RFC3339))

	keys := make([]string, 0, len(env.Variables))
	for k := range env.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, env.Variables[k])
	}
	b.WriteString("</env>")
	return b.String()
}
