package tool

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delayTool struct {
	name    string
	delay   time.Duration
	inFlt   *int32
	maxSeen *int32
}

func (t *delayTool) Name() string                     { return t.name }
func (t *delayTool) Description() string              { return "delays then echoes its name" }
func (t *delayTool) Schema() json.RawMessage           { return json.RawMessage(`{"type":"object"}`) }
func (t *delayTool) Execute(ctx context.Context, _ json.RawMessage) (*Result, error) {
	n := atomic.AddInt32(t.inFlt, 1)
	for {
		seen := atomic.LoadInt32(t.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(t.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(t.delay)
	atomic.AddInt32(t.inFlt, -1)
	return &Result{Content: t.name}, nil
}

func TestDispatchBatchPreservesOrderAcrossVaryingLatency(t *testing.T) {
	m := NewManager()
	m.Registry().Register(&delayTool{name: "slow", delay: 30 * time.Millisecond, inFlt: new(int32), maxSeen: new(int32)})
	m.Registry().Register(&delayTool{name: "fast", delay: 0, inFlt: new(int32), maxSeen: new(int32)})

	uses := []ToolUse{
		{Name: "slow", Input: json.RawMessage(`{}`)},
		{Name: "fast", Input: json.RawMessage(`{}`)},
		{Name: "slow", Input: json.RawMessage(`{}`)},
	}

	outcomes := m.DispatchBatch(context.Background(), uses)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "slow", outcomes[0].Result.Content)
	assert.Equal(t, "fast", outcomes[1].Result.Content)
	assert.Equal(t, "slow", outcomes[2].Result.Content)
}

func TestDispatchBatchBoundsConcurrency(t *testing.T) {
	m := NewManager()
	inFlight := new(int32)
	maxSeen := new(int32)
	m.Registry().Register(&delayTool{name: "slow", delay: 20 * time.Millisecond, inFlt: inFlight, maxSeen: maxSeen})

	uses := make([]ToolUse, maxConcurrentDispatch*3)
	for i := range uses {
		uses[i] = ToolUse{Name: "slow", Input: json.RawMessage(`{}`)}
	}

	m.DispatchBatch(context.Background(), uses)
	assert.LessOrEqual(t, int(atomic.LoadInt32(maxSeen)), maxConcurrentDispatch)
}

func TestDispatchBatchLeavesUnstartedSlotsNilOnCancellation(t *testing.T) {
	m := NewManager()
	m.Registry().Register(&delayTool{name: "echo", delay: 0, inFlt: new(int32), maxSeen: new(int32)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uses := []ToolUse{{Name: "echo", Input: json.RawMessage(`{}`)}}
	outcomes := m.DispatchBatch(ctx, uses)
	require.Len(t, outcomes, 1)
	assert.Nil(t, outcomes[0])
}

func TestDispatchBatchRecoversUnknownTool(t *testing.T) {
	m := NewManager()
	outcomes := m.DispatchBatch(context.Background(), []ToolUse{{Name: "missing", Input: json.RawMessage(`{}`)}})
	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0])
	assert.True(t, outcomes[0].Result.IsError)
}
