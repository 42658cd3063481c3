// Package telemetry sets up OpenTelemetry tracing for the service. Spans are
// emitted per turn and per generation attempt by the orchestrator, and per
// request by the HTTP layer.
package telemetry

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitTracer installs the global tracer provider and returns its shutdown
// function. Spans are exported to stdout; COMPANIOND_TRACE=off disables
// export while keeping span creation sites as no-ops, for deployments that
// scrape stdout for logs and can't tolerate the extra volume.
func InitTracer(serviceName string, logger *slog.Logger) (func(context.Context) error, error) {
	if os.Getenv("COMPANIOND_TRACE") == "off" {
		logger.Info("tracing disabled", slog.String("service", serviceName))
		return func(context.Context) error { return nil }, nil
	}

	var opts []stdouttrace.Option
	if os.Getenv("COMPANIOND_TRACE_COMPACT") == "" {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, err
	}

	// Empty schema URL: resource.Merge refuses to combine resources whose
	// schema URLs conflict, and resource.Default tracks the SDK's semconv
	// version.
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry initialized", slog.String("service", serviceName))

	return tp.Shutdown, nil
}
