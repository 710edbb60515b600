package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmproc/llmproc-go/pkg/models"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := vec.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestExecutorCallbacksRecordsAPICall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	cb := ExecutorCallbacks(m, "anthropic")

	cb.OnAPICall(models.APICallRecord{
		Model:        "claude-sonnet-4-5",
		InputTokens:  100,
		OutputTokens: 50,
		StopReason:   models.StopEndTurn,
		Duration:     200 * time.Millisecond,
	})

	assert.Equal(t, float64(1), counterValue(t, m.APICallCounter, "anthropic", "claude-sonnet-4-5", "success"))
	assert.Equal(t, float64(100), counterValue(t, m.TokensUsed, "anthropic", "claude-sonnet-4-5", "input"))
	assert.Equal(t, float64(50), counterValue(t, m.TokensUsed, "anthropic", "claude-sonnet-4-5", "output"))
}

func TestExecutorCallbacksRecordsAPIErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	cb := ExecutorCallbacks(m, "openai")

	cb.OnAPICall(models.APICallRecord{Model: "gpt-4o", StopReason: models.StopError})

	assert.Equal(t, float64(1), counterValue(t, m.APICallCounter, "openai", "gpt-4o", "error"))
}

func TestExecutorCallbacksRecordsToolCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	cb := ExecutorCallbacks(m, "anthropic")

	cb.OnToolCall(models.ToolCallRecord{Name: "calculator", Duration: 5 * time.Millisecond})
	cb.OnToolCall(models.ToolCallRecord{Name: "calculator", IsError: true, Duration: 1 * time.Millisecond})

	assert.Equal(t, float64(1), counterValue(t, m.ToolCallCounter, "calculator", "success"))
	assert.Equal(t, float64(1), counterValue(t, m.ToolCallCounter, "calculator", "error"))
}

func TestExecutorCallbacksNilMetricsIsNoop(t *testing.T) {
	cb := ExecutorCallbacks(nil, "anthropic")
	assert.Nil(t, cb.OnAPICall)
	assert.Nil(t, cb.OnToolCall)
}

func TestRecordRunOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	RecordRunOutcome(m, &models.RunResult{StopReason: models.StopEndTurn})
	RecordRunOutcome(m, nil)

	assert.Equal(t, float64(1), counterValue(t, m.RunOutcomeCounter, "end_turn"))
}

func TestRecordFDOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	RecordFDOperation(m, "read", nil)
	RecordFDOperation(m, "read", assert.AnError)

	assert.Equal(t, float64(1), counterValue(t, m.FDOperationCounter, "read", "success"))
	assert.Equal(t, float64(1), counterValue(t, m.FDOperationCounter, "read", "error"))
}
