package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a set of Prometheus collectors for a running process: API call
// volume/latency/tokens, tool call volume/latency, FD operation counts, and
// run outcomes (SPEC_FULL §10.6).
type Metrics struct {
	// APICallCounter counts provider calls. Labels: provider, model, status
	// (success|error).
	APICallCounter *prometheus.CounterVec

	// APICallDuration measures provider call latency in seconds. Labels:
	// provider, model.
	APICallDuration *prometheus.HistogramVec

	// TokensUsed tracks token consumption. Labels: provider, model, type
	// (input|output|cache_creation|cache_read).
	TokensUsed *prometheus.CounterVec

	// CostUSD tracks estimated spend. Labels: provider, model.
	CostUSD *prometheus.CounterVec

	// ToolCallCounter counts tool invocations. Labels: tool_name, status
	// (success|error).
	ToolCallCounter *prometheus.CounterVec

	// ToolCallDuration measures tool call latency in seconds. Labels:
	// tool_name.
	ToolCallDuration *prometheus.HistogramVec

	// FDOperationCounter counts file-descriptor manager operations. Labels:
	// operation (create|read|write_to_file), status (success|error).
	FDOperationCounter *prometheus.CounterVec

	// RunOutcomeCounter counts completed Process.Run invocations. Labels:
	// stop_reason.
	RunOutcomeCounter *prometheus.CounterVec

	// ActiveProcesses is a gauge of currently live *process.Process
	// instances.
	ActiveProcesses prometheus.Gauge
}

// NewMetrics registers and returns a fresh Metrics set against registerer.
// Pass prometheus.DefaultRegisterer from cmd/llmproc, or a fresh
// prometheus.NewRegistry() in tests to avoid collisions across subtests.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		APICallCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmproc_api_calls_total",
				Help: "Total number of provider API calls by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),
		APICallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmproc_api_call_duration_seconds",
				Help:    "Duration of provider API calls in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		TokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmproc_tokens_total",
				Help: "Total tokens consumed by provider, model, and token type",
			},
			[]string{"provider", "model", "type"},
		),
		CostUSD: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmproc_cost_usd_total",
				Help: "Estimated API cost in USD by provider and model",
			},
			[]string{"provider", "model"},
		),
		ToolCallCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmproc_tool_calls_total",
				Help: "Total tool invocations by tool name and status",
			},
			[]string{"tool_name", "status"},
		),
		ToolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmproc_tool_call_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"tool_name"},
		),
		FDOperationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmproc_fd_operations_total",
				Help: "Total file descriptor manager operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		RunOutcomeCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmproc_run_outcomes_total",
				Help: "Total completed Run invocations by stop reason",
			},
			[]string{"stop_reason"},
		),
		ActiveProcesses: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "llmproc_active_processes",
				Help: "Current number of live Process instances",
			},
		),
	}
}

func statusLabel(isError bool) string {
	if isError {
		return "error"
	}
	return "success"
}
