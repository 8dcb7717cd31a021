// Package telemetry wraps the channel core's hot paths in OpenTelemetry
// spans, generalizing the absence of any tracing layer in the teacher
// node into a dedicated, swappable exporter boundary (spec EXPANSION
// B.10): a grpc/otlp exporter when an endpoint is configured, a no-op
// tracer otherwise.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/ava-labs/privacy-channel/internal/channel/operator"
	"github.com/ava-labs/privacy-channel/internal/reqid"
)

// Config controls whether and where spans are exported.
type Config struct {
	ServiceName string
	Endpoint    string // OTLP/gRPC collector address; empty disables export
	Insecure    bool
}

// Provider owns the SDK tracer provider for the process lifetime.
type Provider struct {
	tp     trace.TracerProvider
	tracer trace.Tracer
	shut   func(context.Context) error
}

// New builds a Provider. With no Endpoint configured it installs the
// global no-op tracer provider so callers never need a nil check.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		tp := trace.NewNoopTracerProvider()
		return &Provider{
			tp:     tp,
			tracer: tp.Tracer(cfg.ServiceName),
			shut:   func(context.Context) error { return nil },
		}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	sdkTP := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(sdkTP)

	return &Provider{
		tp:     sdkTP,
		tracer: sdkTP.Tracer(cfg.ServiceName),
		shut:   sdkTP.Shutdown,
	}, nil
}

// Shutdown flushes and closes the exporter, if any.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shut(ctx)
}

// StartSpan opens a child span named name under ctx's active span, if
// any, returning the derived context and the span to End.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordOutcome sets a span's status from err (Ok on nil, Error
// otherwise) and records err as a span event when present, the
// convention every wrapped call below follows.
func RecordOutcome(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// TracedOperator wraps an Operator so every Transact call opens a span,
// without the operator package itself needing to know telemetry exists
// (spec EXPANSION B.10: "every Transact call is traced end to end,
// including its external-asset legs").
type TracedOperator struct {
	*operator.Operator
	provider *Provider
}

// Trace wraps op so its Transact calls are spanned by p.
func (p *Provider) Trace(op *operator.Operator) *TracedOperator {
	return &TracedOperator{Operator: op, provider: p}
}

// Transact opens a "channel.transact" span around the wrapped
// Operator's Transact, tagging it with wall-clock duration and outcome.
func (t *TracedOperator) Transact(ctx context.Context, opn operator.ChannelOperation, ai operator.AuthInput) error {
	ctx, span := t.provider.StartSpan(ctx, "channel.transact",
		attribute.Int("spend_count", len(opn.Spend)),
		attribute.Int("create_count", len(opn.Create)),
		attribute.Int("deposit_count", len(opn.Deposit)),
		attribute.Int("withdraw_count", len(opn.Withdraw)),
	)
	defer span.End()
	if id, ok := reqid.FromContext(ctx); ok {
		span.SetAttributes(attribute.String("correlation_id", id))
	}

	start := time.Now()
	err := t.Operator.Transact(ctx, opn, ai)
	span.SetAttributes(attribute.Int64("duration_ms", time.Since(start).Milliseconds()))
	RecordOutcome(span, err)
	return err
}
