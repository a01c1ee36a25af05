package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/10mm-gms/blueprint/internal/testutil"
)

func restoreGlobal(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestNewTracerProvider_Exports(t *testing.T) {
	restoreGlobal(t)
	exporter := tracetest.NewInMemoryExporter()

	tp, err := NewTracerProvider(context.Background(), Options{
		ServiceName: "blueprint",
		Environment: "test",
		Exporter:    exporter,
	}, testutil.Logger(t))
	require.NoError(t, err)

	assert.Same(t, tp, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "work", spans[0].Name)
	assert.Contains(t, spans[0].Resource.Attributes(), attribute.String("service.name", "blueprint"))
	assert.Contains(t, spans[0].Resource.Attributes(), attribute.String("deployment.environment", "test"))
}

func TestNewTracerProvider_NoEndpoint(t *testing.T) {
	restoreGlobal(t)

	tp, err := NewTracerProvider(context.Background(), Options{ServiceName: "blueprint"}, testutil.Logger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "local")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid(), "spans stay valid for log correlation without an exporter")
}
