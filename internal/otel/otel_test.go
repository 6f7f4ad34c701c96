package otel

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMustInitOtel_Disabled(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	ctrl := MustInitOtel()

	assert.Nil(t, ctrl.traceProvider)
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
	require.NoError(t, ctrl.Shutdown(context.Background()))
}

func TestMustInitOtel_Enabled(t *testing.T) {
	viper.Reset()
	viper.Set("otel.enabled", true)
	viper.Set("otel.jaeger_endpoint", "http://127.0.0.1:1/api/traces")
	t.Cleanup(viper.Reset)

	ctrl := MustInitOtel()

	require.NotNil(t, ctrl.traceProvider)
	_, span := otel.Tracer("test").Start(context.Background(), "span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}
