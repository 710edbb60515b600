// Package telemetry provides OpenTelemetry tracing and Prometheus metrics
// for a running process: spans around each provider call and tool dispatch,
// and counters/histograms for API calls, tool invocations, and FD
// operations (SPEC_FULL §10.6 "Observability").
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer configured for one llmproc process.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// TraceConfig configures the exporter. If Endpoint is empty, Tracer records
// spans in-process without exporting them (NewTracer still returns a usable
// no-op tracer rather than erroring, matching the rest of the pack's
// fail-open telemetry posture).
type TraceConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	SamplingRate   float64
	Insecure       bool
}

// NewTracer builds a Tracer per cfg and returns a shutdown func that must be
// called on exit.
func NewTracer(cfg TraceConfig) (*Tracer, func(context.Context) error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "llmproc"
	}
	if cfg.Endpoint == "" {
		return &Tracer{tracer: otel.Tracer(cfg.ServiceName)}, func(context.Context) error { return nil }
	}
	if cfg.SamplingRate == 0 {
		cfg.SamplingRate = 1.0
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return &Tracer{tracer: otel.Tracer(cfg.ServiceName)}, func(context.Context) error { return nil }
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		res = resource.Default()
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SamplingRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{provider: provider, tracer: provider.Tracer(cfg.ServiceName)},
		func(ctx context.Context) error { return provider.Shutdown(ctx) }
}

// TraceProviderCall starts a span around one provider.Client.CreateMessage
// call.
func (t *Tracer) TraceProviderCall(ctx context.Context, providerName, model string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "provider.create_message", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llmproc.provider", providerName),
			attribute.String("llmproc.model", model),
		))
}

// TraceToolDispatch starts a span around one tool invocation.
func (t *Tracer) TraceToolDispatch(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tool.call", trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("llmproc.tool", toolName)))
}

// TraceRun starts a span around one top-level Process.Run invocation.
func (t *Tracer) TraceRun(ctx context.Context, processID, programName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "process.run", trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("llmproc.process_id", processID),
			attribute.String("llmproc.program", programName),
		))
}

// RecordError records err on span and sets its status to error, a no-op if
// err is nil.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
