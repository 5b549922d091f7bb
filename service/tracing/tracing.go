package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/khaledhikmat/dfd-go/service/config"
	"github.com/khaledhikmat/dfd-go/service/lgr"
)

const ServiceName = "dfd-go"

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(ctx context.Context) error

// Init installs a global tracer provider exporting over OTLP/HTTP. Without a
// TRACING_ENDPOINT the global no-op provider stays in place.
func Init(ctx context.Context, cfgsvc config.IService) (ShutdownFunc, error) {
	endpoint := cfgsvc.GetTracingEndpoint()
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfgsvc.GetRuntimeEnv()),
		)),
	)

	otel.SetTracerProvider(tp)
	lgr.Logger.Info("tracing enabled", slog.String("endpoint", endpoint))
	return tp.Shutdown, nil
}
