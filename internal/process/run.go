package process

import (
	"context"

	"github.com/llmproc/llmproc-go/internal/executor"
	"github.com/llmproc/llmproc-go/internal/provider/modelinfo"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// Run drives one run(input) to completion via the executor (spec §4.4),
// serialized against any other top-level Run on this same process.
func (p *Process) Run(ctx context.Context, input string) (*models.RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cb := executor.Callbacks{
		OnResponse: p.telemetry.OnResponse,
		OnAPICall:  p.telemetry.OnAPICall,
		OnToolCall: func(rec models.ToolCallRecord) {
			p.totalToolCalls++
			if p.telemetry.OnToolCall != nil {
				p.telemetry.OnToolCall(rec)
			}
		},
	}

	rr, err := executor.Run(ctx, p, input, cb)
	if rr != nil {
		p.totalCostUSD += rr.TotalUSDCost(func(c models.APICallRecord) float64 {
			return modelinfo.CostUSD(c.Model, c.InputTokens, c.OutputTokens, c.CacheCreationInputTok, c.CacheReadInputTok)
		})
	}
	return rr, err
}

// CountTokens implements the distinct count_tokens() operation (spec §4.4).
func (p *Process) CountTokens(ctx context.Context) (*executor.TokenCount, error) {
	return executor.CountTokens(ctx, p)
}

// TotalToolCalls reports the cumulative number of tool calls dispatched by
// this process across all Run invocations.
func (p *Process) TotalToolCalls() int { return p.totalToolCalls }

// TotalCostUSD reports the cumulative estimated USD cost across all Run
// invocations, per modelinfo's static pricing table.
func (p *Process) TotalCostUSD() float64 { return p.totalCostUSD }
