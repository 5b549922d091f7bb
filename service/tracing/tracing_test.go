package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/khaledhikmat/dfd-go/service/config"
)

func TestInitDisabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Init(context.Background(), config.NewHardCoded())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInitEnabled(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	t.Setenv("TRACING_ENDPOINT", "http://127.0.0.1:4318/v1/traces")
	cfgsvc, err := config.NewEnv()
	require.NoError(t, err)

	shutdown, err := Init(context.Background(), cfgsvc)
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}
