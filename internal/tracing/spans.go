package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrWorkspaceID = "workspace.id"
	AttrModeFrom    = "mode.from"
	AttrModeTo      = "mode.to"
	AttrDialect     = "transpile.dialect"
	AttrWarnings    = "transpile.warnings"
	AttrRunID       = "run.id"
	AttrInstances   = "decompose.instances"
)

// Span names.
const (
	SpanSwitchMode = "workspace.switch_mode"
	SpanTranspile  = "workspace.transpile"
	SpanRun        = "workspace.run"
	SpanDecompose  = "workspace.decompose"
)

// Start opens a span on tracer, defaulting to a no-op tracer when nil.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Noop()
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
