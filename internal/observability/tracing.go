// Package observability wires OpenTelemetry tracing for the CLI.
//
// With --trace, every API round trip is emitted as a span to stderr via the
// stdout exporter, giving operators a request-by-request view of what a
// command actually did on the wire (including token refreshes).
package observability

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracing holds an initialized tracer provider and its shutdown hook.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// Setup builds a TracerProvider that pretty-prints spans to stderr.
// serviceVersion is the CLI build version.
func Setup(serviceVersion string) (*Tracing, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("pollbase-cli"),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	// A CLI run is short; a simple (synchronous) processor guarantees spans
	// are flushed before the process exits.
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)

	return &Tracing{provider: provider}, nil
}

// Provider returns the tracer provider for client wiring.
func (t *Tracing) Provider() trace.TracerProvider {
	return t.provider
}

// Shutdown flushes and stops the provider.
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
