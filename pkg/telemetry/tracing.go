// Package telemetry sets up OpenTelemetry tracing for the gateway.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type TracerOption func(d *customTracer)

func WithOTLPEndpoint(endpoint string) TracerOption {
	return func(d *customTracer) {
		d.endpoint = endpoint
	}
}

func WithOTLPInsecure() TracerOption {
	return func(d *customTracer) {
		d.insecure = true
	}
}

func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(d *customTracer) {
		d.attributes = append(d.attributes, attrs...)
	}
}

func WithSamplingRatio(samplingRatio float64) TracerOption {
	return func(d *customTracer) {
		d.samplingRatio = samplingRatio
	}
}

// WithSlowTraceThreshold only exports traces whose root span took at least threshold.
// Zero exports every sampled trace.
func WithSlowTraceThreshold(threshold time.Duration) TracerOption {
	return func(d *customTracer) {
		d.slowTraceThreshold = threshold
	}
}

type customTracer struct {
	endpoint           string
	insecure           bool
	attributes         []attribute.KeyValue
	samplingRatio      float64
	slowTraceThreshold time.Duration
}

// NewTracerProvider builds a tracer provider exporting over OTLP gRPC and installs it, with
// the W3C propagators, as the global provider.
func NewTracerProvider(ctx context.Context, opts ...TracerOption) (*sdktrace.TracerProvider, error) {
	tracer := &customTracer{
		endpoint:      "0.0.0.0:4317",
		samplingRatio: 0.2,
	}
	for _, opt := range opts {
		opt(tracer)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(tracer.attributes...))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(tracer.endpoint)}
	if tracer.insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}

	var exp sdktrace.SpanExporter
	exp, err = otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to establish a connection with the otlp exporter: %w", err)
	}
	if tracer.slowTraceThreshold > 0 {
		exp = NewSlowTraceExporter(exp, tracer.slowTraceThreshold)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tracer.samplingRatio))),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exp),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetTracerProvider(tp)

	return tp, nil
}

func MustNewTracerProvider(opts ...TracerOption) *sdktrace.TracerProvider {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tp, err := NewTracerProvider(ctx, opts...)
	if err != nil {
		panic(err)
	}
	return tp
}

func TraceError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
