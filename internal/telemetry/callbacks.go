package telemetry

import (
	"github.com/llmproc/llmproc-go/internal/executor"
	"github.com/llmproc/llmproc-go/pkg/models"
)

// ExecutorCallbacks builds an executor.Callbacks that records API-call and
// tool-call metrics against m. provider and model label every API-call
// metric; per-call models are also available on the record itself, so
// APICallCounter/APICallDuration key on record.Model rather than the
// program-level default where they differ (e.g. linked programs on a
// different model).
func ExecutorCallbacks(m *Metrics, providerName string) executor.Callbacks {
	if m == nil {
		return executor.Callbacks{}
	}
	return executor.Callbacks{
		OnAPICall: func(rec models.APICallRecord) {
			status := "success"
			if rec.StopReason == models.StopError {
				status = "error"
			}
			m.APICallCounter.WithLabelValues(providerName, rec.Model, status).Inc()
			m.APICallDuration.WithLabelValues(providerName, rec.Model).Observe(rec.Duration.Seconds())
			if rec.InputTokens > 0 {
				m.TokensUsed.WithLabelValues(providerName, rec.Model, "input").Add(float64(rec.InputTokens))
			}
			if rec.OutputTokens > 0 {
				m.TokensUsed.WithLabelValues(providerName, rec.Model, "output").Add(float64(rec.OutputTokens))
			}
			if rec.CacheCreationInputTok > 0 {
				m.TokensUsed.WithLabelValues(providerName, rec.Model, "cache_creation").Add(float64(rec.CacheCreationInputTok))
			}
			if rec.CacheReadInputTok > 0 {
				m.TokensUsed.WithLabelValues(providerName, rec.Model, "cache_read").Add(float64(rec.CacheReadInputTok))
			}
		},
		OnToolCall: func(rec models.ToolCallRecord) {
			m.ToolCallCounter.WithLabelValues(rec.Name, statusLabel(rec.IsError)).Inc()
			m.ToolCallDuration.WithLabelValues(rec.Name).Observe(rec.Duration.Seconds())
		},
	}
}

// RecordRunOutcome increments RunOutcomeCounter for one completed Run.
// Called by cmd/llmproc after process.Process.Run returns, since the stop
// reason and per-run cost aren't available inside the OnAPICall/OnToolCall
// hooks installed via Process.SetTelemetry.
func RecordRunOutcome(m *Metrics, rr *models.RunResult) {
	if m == nil || rr == nil {
		return
	}
	m.RunOutcomeCounter.WithLabelValues(string(rr.StopReason)).Inc()
}

// RecordCost adds costUSD to the CostUSD counter under provider/model.
func RecordCost(m *Metrics, providerName, model string, costUSD float64) {
	if m == nil || costUSD <= 0 {
		return
	}
	m.CostUSD.WithLabelValues(providerName, model).Add(costUSD)
}

// RecordFDOperation increments FDOperationCounter for one fd.Manager
// operation.
func RecordFDOperation(m *Metrics, operation string, err error) {
	if m == nil {
		return
	}
	m.FDOperationCounter.WithLabelValues(operation, statusLabel(err != nil)).Inc()
}
