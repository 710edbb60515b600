package tool

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentDispatch bounds how many tool calls a single assistant turn
// dispatches at once. Tool calls within a batch are independent of each
// other (none can see another's result until the next provider round-trip),
// so running them concurrently only affects wall-clock time, never the
// result-ordering guarantee the caller is responsible for preserving.
const maxConcurrentDispatch = 4

// ToolUse is the minimal shape DispatchBatch needs from an assistant's
// tool_use content block. Kept local to this package rather than importing
// pkg/models, since Manager has no other dependency on the message wire
// format.
type ToolUse struct {
	Name  string
	Input json.RawMessage
}

// DispatchOutcome pairs one ToolUse's Result with how long it took to
// produce, for the caller's FD-wrap and telemetry bookkeeping.
type DispatchOutcome struct {
	Result   *Result
	Duration time.Duration
}

// DispatchBatch calls m.Call for each ToolUse concurrently, bounded by
// maxConcurrentDispatch, and returns outcomes in the same order as uses.
// Once ctx is cancelled, no further calls are started; the outcomes for any
// not-yet-started index are left nil so the caller can substitute its own
// cancellation result without this package needing to know that shape.
func (m *Manager) DispatchBatch(ctx context.Context, uses []ToolUse) []*DispatchOutcome {
	outcomes := make([]*DispatchOutcome, len(uses))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDispatch)
	for i, u := range uses {
		if ctx.Err() != nil {
			break
		}
		i, u := i, u
		g.Go(func() error {
			start := time.Now()
			res := m.Call(ctx, u.Name, u.Input)
			outcomes[i] = &DispatchOutcome{Result: res, Duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait() // every goroutine above returns nil; Call recovers errors into *Result

	return outcomes
}
