package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, Config{CollectorEndpoint: "localhost:14317", ServiceName: "catalog-migrator-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("sequencer"))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	ctx := context.Background()
	// The gRPC exporter dials lazily, so construction succeeds without a collector.
	tp, err := NewTracerProvider(ctx, Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1,
		ServiceName:       "catalog-migrator-test",
		Insecure:          true,
		RunID:             "run-1",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.IsEnabled())

	_, span := tp.Tracer("sequencer").Start(ctx, "upload-category")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_ = tp.Shutdown(cancelled)
}

func TestNewResource(t *testing.T) {
	res, err := newResource("catalog-migrator", "run-7")
	require.NoError(t, err)

	values := map[string]string{}
	for _, kv := range res.Attributes() {
		values[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "catalog-migrator", values[string(semconv.ServiceNameKey)])
	assert.Equal(t, "run-7", values[string(semconv.ServiceInstanceIDKey)])
	assert.Equal(t, ServiceVersion, values[string(semconv.ServiceVersionKey)])

	res, err = newResource("catalog-migrator", "")
	require.NoError(t, err)
	_, ok := res.Set().Value(semconv.ServiceInstanceIDKey)
	assert.False(t, ok)
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1.5).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), samplerFor(0.25).Description())
}
