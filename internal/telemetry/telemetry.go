// Package telemetry sets up OpenTelemetry tracing for the servers.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Options configures the tracer provider.
type Options struct {
	ServiceName string
	Environment string

	// Endpoint is the OTLP/HTTP collector. Empty keeps spans in process:
	// trace ids still reach the request logs, nothing is exported.
	Endpoint string

	// Exporter overrides the OTLP exporter, mainly for tests.
	Exporter sdktrace.SpanExporter
}

// NewTracerProvider builds the SDK provider and installs it as the global
// provider and propagator. Callers own Shutdown.
func NewTracerProvider(ctx context.Context, opts Options, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("deployment.environment", opts.Environment),
	)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	exporter := opts.Exporter
	if exporter == nil && opts.Endpoint != "" {
		// otlptracehttp reads OTEL_EXPORTER_OTLP_* itself, including the endpoint.
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		exporter = exp
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
		logger.Info("trace export enabled", zap.String("endpoint", opts.Endpoint))
	} else {
		logger.Debug("trace export disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp, nil
}
