// Package sdtelemetry provides an optional OpenTelemetry tracer provider
// for the batch executor and API client, following
// AltairaLabs-PromptKit's runtime/telemetry provider: OTLP/HTTP export
// when an endpoint is configured, a no-op provider otherwise so the rest
// of the module never has to branch on whether tracing is enabled.
package sdtelemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	// InstrumentationName is the OTel instrumentation scope name.
	InstrumentationName = "gitlab.com/tinyland/lab/sdgen"

	// InstrumentationVersion is the OTel instrumentation scope version.
	InstrumentationVersion = "1.0.0"
)

// Tracer returns a named tracer from tp. If tp is nil the global provider
// (a no-op unless NewTracerProvider has been installed via otel.SetTracerProvider)
// is used.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(InstrumentationVersion))
}

// NewTracerProvider builds a TracerProvider that exports spans via
// OTLP/HTTP to endpoint. The caller owns its lifetime and must call
// Shutdown. When endpoint is empty, callers should skip this entirely and
// rely on the global no-op provider instead.
func NewTracerProvider(ctx context.Context, endpoint, serviceName string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

// SetupPropagation configures the global OTel text-map propagator to
// handle W3C TraceContext and Baggage headers, so spans started by the
// API client's otelhttp transport correlate across a synthesis backend
// call.
func SetupPropagation() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}
