// Package telemetry configures OpenTelemetry tracing for brandforge.
//
// It installs a global TracerProvider with an OTLP exporter so the
// spans emitted across the codebase land somewhere. Telemetry failures
// never crash the application; a broken collector degrades to no-op
// tracing.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry owns the tracer provider lifecycle.
type Telemetry struct {
	config         Config
	tracerProvider *trace.TracerProvider
	degraded       bool
}

// New initializes tracing from config. When disabled, returns a no-op
// instance. Exporter construction errors degrade to no-op rather than
// failing startup.
func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	t := &Telemetry{config: cfg}
	if !cfg.Enabled {
		return t, nil
	}

	tp, err := newTracerProvider(ctx, cfg)
	if err != nil {
		t.degraded = true
		return t, nil
	}
	t.tracerProvider = tp
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

// Degraded reports whether exporter setup failed and tracing is no-op.
func (t *Telemetry) Degraded() bool {
	return t != nil && t.degraded
}

// Shutdown flushes and stops the tracer provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.tracerProvider == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.ShutdownTimeout)
		defer cancel()
	}
	if err := t.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace provider shutdown: %w", err)
	}
	return nil
}
