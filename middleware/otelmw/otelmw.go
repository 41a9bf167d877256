// Package otelmw provides OpenTelemetry instrumentation as a duckserver
// Middleware: one span and one pair of metrics per procedure call.
package otelmw

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ducksrv/duckserver"
)

const instrumentationName = "duckserver"

// Config configures the middleware. Extractors pull the pieces of a
// request's context value C that the framework itself has no fixed way to
// reach: the standard context.Context (for cancellation/trace propagation)
// and a human-readable procedure name (for span/attribute naming).
type Config[C any] struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	ServiceName    string

	// Std extracts the request's context.Context from C.
	Std func(C) context.Context
	// ProcedureName extracts a dotted procedure path from C, used to name
	// spans and tag metrics.
	ProcedureName func(C) string
}

// New builds the instrumentation middleware described by cfg.
func New[C any](cfg Config[C]) duckserver.Middleware[C] {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "duckserver"
	}

	tracer := cfg.TracerProvider.Tracer(instrumentationName)
	meter := cfg.MeterProvider.Meter(instrumentationName)

	requestCounter, _ := meter.Int64Counter("rpc.server.requests",
		metric.WithUnit("{request}"),
		metric.WithDescription("Number of RPC requests"),
	)
	durationHistogram, _ := meter.Float64Histogram("rpc.server.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of RPC requests"),
	)

	return func(ctx C, next duckserver.Next[C]) duckserver.Result {
		method := "unknown"
		if cfg.ProcedureName != nil {
			method = cfg.ProcedureName(ctx)
		}

		var stdCtx context.Context = context.Background()
		if cfg.Std != nil {
			stdCtx = cfg.Std(ctx)
		}

		start := time.Now()
		stdCtx, span := tracer.Start(stdCtx, "duckserver/"+method, trace.WithAttributes(
			attribute.String("rpc.system", "duckserver"),
			attribute.String("rpc.service", cfg.ServiceName),
			attribute.String("rpc.method", method),
		))
		defer span.End()

		result := next(ctx)

		elapsed := time.Since(start).Seconds()
		status := "ok"
		if !result.IsOK() {
			status = "error"
			span.SetStatus(otelcodes.Error, string(result.ErrorCode()))
		}

		attrs := metric.WithAttributes(
			attribute.String("rpc.method", method),
			attribute.String("rpc.status", status),
		)
		requestCounter.Add(stdCtx, 1, attrs)
		durationHistogram.Record(stdCtx, elapsed, attrs)

		return result
	}
}
