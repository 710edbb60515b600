package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/llmproc/llmproc-go/internal/config"
	"github.com/llmproc/llmproc-go/internal/format"
	"github.com/llmproc/llmproc-go/internal/process"
	"github.com/llmproc/llmproc-go/internal/telemetry"
	"github.com/llmproc/llmproc-go/internal/tool/builtin"
)

func buildRunCmd() *cobra.Command {
	var otlpEndpoint string
	var enableMetrics bool

	cmd := &cobra.Command{
		Use:   "run <program.yaml> [prompt]",
		Short: "Run a program to completion against one prompt",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := ""
			if len(args) == 2 {
				prompt = args[1]
			}
			return runProgram(cmd.Context(), args[0], prompt, otlpEndpoint, enableMetrics)
		},
	}
	cmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP/gRPC collector endpoint for tracing (tracing is a no-op if empty)")
	cmd.Flags().BoolVar(&enableMetrics, "metrics", false, "record Prometheus metrics for this run and print a summary")
	return cmd
}

func runProgram(ctx context.Context, configPath, prompt, otlpEndpoint string, enableMetrics bool) error {
	prog, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	client, err := buildProviderClient(prog)
	if err != nil {
		return err
	}

	p, err := process.Start(prog, client, process.EnvInfo{}, builtin.Register)
	if err != nil {
		return fmt.Errorf("starting process: %w", err)
	}

	tracer, shutdown := telemetry.NewTracer(telemetry.TraceConfig{
		ServiceName:    "llmproc",
		ServiceVersion: version,
		Endpoint:       otlpEndpoint,
	})
	defer shutdown(ctx)

	var metrics *telemetry.Metrics
	if enableMetrics {
		metrics = telemetry.NewMetrics(prometheus.DefaultRegisterer)
		p.SetTelemetry(telemetry.ExecutorCallbacks(metrics, prog.Provider))
	}

	runCtx, span := tracer.TraceRun(ctx, p.ID(), prog.Name)
	defer span.End()

	started := time.Now()
	rr, err := p.Run(runCtx, prompt)
	elapsed := time.Since(started)
	if metrics != nil {
		telemetry.RecordRunOutcome(metrics, rr)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Println(rr.LastAssistantText)
	fmt.Fprintf(os.Stderr, "stop_reason=%s tool_calls=%d cost_usd=%.4f elapsed=%s\n",
		rr.StopReason, p.TotalToolCalls(), p.TotalCostUSD(), format.FormatDurationMsInt(elapsed.Milliseconds()))
	return nil
}
