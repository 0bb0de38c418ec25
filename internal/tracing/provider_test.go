package tracing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/corsairlabs/meetcore/internal/tracing"
)

func TestInitTracer_InstallsGlobalProviderAndPropagator(t *testing.T) {
	tp, err := tracing.InitTracer(context.Background(), "meetcore-signaling-test", "127.0.0.1:55680")
	require.NoError(t, err)
	require.NotNil(t, tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	assert.Same(t, tp, otel.GetTracerProvider())

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}
