// Package executor drives one Process through the assemble -> call ->
// dispatch -> repeat loop against a provider.Client, enforcing iteration and
// cost limits, prompt-cache placement, and the tool_use/tool_result ordering
// invariants (spec §4.4 "Process Executor (the hard core)").
//
// The package defines its own Target interface rather than importing
// internal/process directly: *process.Process satisfies Target structurally,
// which keeps the dependency edge pointing one way (process imports
// executor, never the reverse) even though the two packages are tightly
// coupled conceptually.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/llmproc/llmproc-go/internal/fd"
	"github.com/llmproc/llmproc-go/internal/program"
	"github.com/llmproc/llmproc-go/internal/provider"
	"github.com/llmproc/llmproc-go/internal/provider/modelinfo"
	"github.com/llmproc/llmproc-go/internal/tool"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// Target is the surface the executor needs from a running process.
type Target interface {
	Program() *program.Program
	State() *models.State
	FDManager() *fd.Manager
	Tools() *tool.Manager
	ProviderClient() provider.Client

	// EnrichedSystemPrompt returns the system prompt to send with every API
	// call: the program's base system prompt plus preloaded file contents
	// and environment-info blocks, computed once at process instantiation.
	EnrichedSystemPrompt() string
}

// Callbacks holds optional observers invoked during Run. Any may be nil.
type Callbacks struct {
	OnResponse func(*provider.Response)
	OnAPICall  func(models.APICallRecord)
	OnToolCall func(models.ToolCallRecord)
}

const defaultMaxIterations = 10

// Run drives t through run(userInput) to completion, per spec §4.4's loop
// outline. userInput may be empty to continue a prior run (e.g. after a
// fork child already has a seeded state); if the state is still empty in
// that case, a benign placeholder user turn is injected so the provider
// never receives an empty message list.
func Run(ctx context.Context, t Target, userInput string, cb Callbacks) (*models.RunResult, error) {
	rr := models.NewRunResult()
	prog := t.Program()

	if err := appendInitialInput(t, userInput); err != nil {
		rr.Error = models.NewRunError(models.KindProviderError, "appending user input", err)
		rr.StopReason = models.StopError
		return rr.Complete(), rr.Error
	}

	maxIterations := prog.Params.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	for i := 1; i <= maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			rr.StopReason = models.StopCancelled
			break
		}

		resp, duration, err := callProvider(ctx, t, prog)
		if err != nil {
			rr.Error = models.NewRunError(models.KindProviderError, "provider call failed", err)
			rr.StopReason = models.StopError
			return rr.Complete(), rr.Error
		}
		rr.APICalls = append(rr.APICalls, models.APICallRecord{
			Model:                 prog.Model,
			InputTokens:           resp.Usage.InputTokens,
			OutputTokens:          resp.Usage.OutputTokens,
			CacheCreationInputTok: resp.Usage.CacheCreationInputTok,
			CacheReadInputTok:     resp.Usage.CacheReadInputTok,
			StopReason:            resp.StopReason,
			Duration:              duration,
		})
		if cb.OnAPICall != nil {
			cb.OnAPICall(rr.APICalls[len(rr.APICalls)-1])
		}

		assistantMsg := models.NewAssistantMessage(resp.Content...)
		if err := t.State().Append(assistantMsg); err != nil {
			rr.Error = models.NewRunError(models.KindProviderError, "assistant turn violated state invariants", err)
			rr.StopReason = models.StopError
			return rr.Complete(), rr.Error
		}
		if cb.OnResponse != nil {
			cb.OnResponse(resp)
		}
		if text := assistantMsg.Text(); text != "" {
			rr.LastAssistantText = text
		}

		toolUses := assistantMsg.ToolUses()
		if resp.StopReason == models.StopEndTurn || len(toolUses) == 0 {
			rr.StopReason = models.StopEndTurn
			break
		}

		cancelled, err := dispatchToolUses(ctx, t, toolUses, rr, cb)
		if err != nil {
			rr.Error = models.NewRunError(models.KindProviderError, "tool result turn violated state invariants", err)
			rr.StopReason = models.StopError
			return rr.Complete(), rr.Error
		}
		if cancelled {
			rr.StopReason = models.StopCancelled
			break
		}

		if limit := prog.Params.CostLimitUSD; limit > 0 && totalCostUSD(rr) >= limit {
			rr.StopReason = models.StopCostExhausted
			break
		}

		if i == maxIterations {
			rr.StopReason = models.StopIterationCap
		}
	}

	extractReferences(t, rr)

	return rr.Complete(), nil
}

// appendInitialInput appends the user's turn, auto-wrapping it through the
// FD manager if oversized. When userInput is empty and state is already
// non-empty, nothing is appended (the caller is continuing an in-flight
// run). When userInput is empty and state is empty, a placeholder turn is
// injected (spec §4.4 "empty-state guard").
func appendInitialInput(t Target, userInput string) error {
	if userInput == "" {
		if t.State().Len() > 0 {
			return nil
		}
		return t.State().Append(models.NewUserMessage(models.NewTextBlock("(continue)")))
	}
	content := userInput
	if preview, ok := t.FDManager().MaybeWrapUserInput(userInput); ok {
		content = preview
	}
	return t.State().Append(models.NewUserMessage(models.NewTextBlock(content)))
}

func callProvider(ctx context.Context, t Target, prog *program.Program) (*provider.Response, time.Duration, error) {
	schemas, err := t.Tools().Schemas(ctx)
	if err != nil {
		return nil, 0, err
	}
	toolDefs := make([]provider.ToolDef, len(schemas))
	for i, s := range schemas {
		toolDefs[i] = provider.ToolDef{
			Name:        s.Name,
			Description: s.Description,
			InputSchema: tool.AssertSchemaNonNil(s.InputSchema),
		}
	}

	req := provider.CreateRequest{
		Model:            prog.Model,
		System:           t.EnrichedSystemPrompt(),
		Messages:         t.State().Messages(),
		Tools:            toolDefs,
		MaxTokens:        prog.Params.MaxTokens,
		Temperature:      prog.Params.Temperature,
		TopP:             prog.Params.TopP,
		ThinkingBudget:   prog.Params.ThinkingBudget,
		ReasoningEffort:  prog.Params.ReasoningEffort,
		CacheBreakpoints: cacheBreakpoints(t.State().Messages()),
		CachingDisabled:  prog.Params.DisableAutomaticCaching,
	}

	start := time.Now()
	resp, err := t.ProviderClient().CreateMessage(ctx, req)
	return resp, time.Since(start), err
}

// dispatchToolUses executes one batch of tool_use blocks through a bounded
// concurrent dispatch (internal/tool.Manager.DispatchBatch) and appends a
// single user-role message containing their tool_result blocks in the same
// order as toolUses, regardless of completion order (spec §4.4 "Ordering
// guarantees"). Any tool_use that DispatchBatch left unstarted because ctx
// was already cancelled receives a synthetic error result so P1/P5 still
// hold, and cancelled is reported true.
func dispatchToolUses(ctx context.Context, t Target, toolUses []models.ContentBlock, rr *models.RunResult, cb Callbacks) (cancelled bool, err error) {
	uses := make([]tool.ToolUse, len(toolUses))
	for i, tu := range toolUses {
		uses[i] = tool.ToolUse{Name: tu.ToolUseName, Input: tu.ToolUseInput}
	}
	outcomes := t.Tools().DispatchBatch(ctx, uses)

	results := make([]models.ContentBlock, len(toolUses))
	for i, tu := range toolUses {
		outcome := outcomes[i]
		if outcome == nil {
			cancelled = true
			results[i] = models.NewToolResultBlock(tu.ToolUseID, "tool call cancelled before dispatch", true)
			continue
		}

		content := outcome.Result.Content
		if preview, ok := t.FDManager().MaybeWrapToolResult(tu.ToolUseName, content); ok {
			content = preview
		}

		results[i] = models.NewToolResultBlock(tu.ToolUseID, content, outcome.Result.IsError)
		rr.ToolCalls = append(rr.ToolCalls, models.ToolCallRecord{
			Name:     tu.ToolUseName,
			Args:     string(tu.ToolUseInput),
			Result:   content,
			IsError:  outcome.Result.IsError,
			Duration: outcome.Duration,
		})
		if cb.OnToolCall != nil {
			cb.OnToolCall(rr.ToolCalls[len(rr.ToolCalls)-1])
		}
	}

	if appendErr := t.State().Append(models.NewUserMessage(results...)); appendErr != nil {
		return cancelled, appendErr
	}
	return cancelled, nil
}

// cacheBreakpoints implements spec §4.4's branching-point placement rule: a
// breakpoint on the message immediately preceding the second-most-recent
// non-tool-result user message, so that re-sending an earlier conversation
// branch still hits the cache written by a later one.
func cacheBreakpoints(messages []models.Message) []int {
	var userTurns []int
	for i, m := range messages {
		if m.Role == models.RoleUser && !isToolResultOnly(m) {
			userTurns = append(userTurns, i)
		}
	}
	if len(userTurns) < 2 {
		return nil
	}
	secondMostRecent := userTurns[len(userTurns)-2]
	if secondMostRecent == 0 {
		return nil
	}
	return []int{secondMostRecent - 1}
}

func isToolResultOnly(m models.Message) bool {
	if len(m.Content) == 0 {
		return false
	}
	for _, b := range m.Content {
		if b.Type != models.BlockToolResult {
			return false
		}
	}
	return true
}

func totalCostUSD(rr *models.RunResult) float64 {
	return rr.TotalUSDCost(func(c models.APICallRecord) float64 {
		return modelinfo.CostUSD(c.Model, c.InputTokens, c.OutputTokens, c.CacheCreationInputTok, c.CacheReadInputTok)
	})
}

// extractReferences scans the final assistant text for <ref id="LABEL">
// blocks and stores them in the FD manager (spec §6 "Response references").
func extractReferences(t Target, rr *models.RunResult) {
	if rr.LastAssistantText == "" {
		return
	}
	_, collisions := t.FDManager().ExtractReferences(rr.LastAssistantText)
	for _, label := range collisions {
		slog.Default().Warn("fd reference label collided with an existing file descriptor",
			"label", label)
	}
}
