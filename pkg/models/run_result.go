package models

import "time"

// StopReason is the provider-reported (or executor-imposed) cause of run
// termination.
type StopReason string

const (
	StopEndTurn       StopReason = "end_turn"
	StopToolUse       StopReason = "tool_use"
	StopMaxTokens     StopReason = "max_tokens"
	StopSequence      StopReason = "stop_sequence"
	StopIterationCap  StopReason = "iteration_limit"
	StopCostExhausted StopReason = "cost_exhausted"
	StopCancelled     StopReason = "cancelled"
	StopError         StopReason = "error"
)

// APICallRecord captures one provider request/response for telemetry.
type APICallRecord struct {
	Model                 string
	InputTokens           int
	OutputTokens          int
	CacheCreationInputTok int
	CacheReadInputTok     int
	StopReason            StopReason
	Duration              time.Duration
}

// ToolCallRecord captures one dispatched tool call for telemetry.
type ToolCallRecord struct {
	Name     string
	Args     string
	Result   string
	IsError  bool
	Duration time.Duration
}

// RunResult aggregates per-run telemetry for one Executor.Run invocation.
type RunResult struct {
	APICalls  []APICallRecord
	ToolCalls []ToolCallRecord

	StartedAt time.Time
	EndedAt   time.Time

	StopReason StopReason
	Error      error

	LastAssistantText string

	completed bool
}

// Duration returns the wall-clock time spent in the run.
func (r *RunResult) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// TotalUSDCost derives a dollar cost from accumulated token usage using the
// supplied pricing function (model-dependent — see spec §9 open question 2).
// Returns 0 if priceFn is nil.
func (r *RunResult) TotalUSDCost(priceFn func(call APICallRecord) float64) float64 {
	if priceFn == nil {
		return 0
	}
	var total float64
	for _, c := range r.APICalls {
		total += priceFn(c)
	}
	return total
}

// Complete marks the run as finished, stamping EndedAt if not already set,
// and returns the receiver for chaining at the end of Executor.Run.
func (r *RunResult) Complete() *RunResult {
	if r.EndedAt.IsZero() {
		r.EndedAt = time.Now()
	}
	r.completed = true
	return r
}

// Completed reports whether Complete has been called.
func (r *RunResult) Completed() bool {
	return r.completed
}

// NewRunResult starts a new RunResult with StartedAt stamped to now.
func NewRunResult() *RunResult {
	return &RunResult{StartedAt: time.Now()}
}
