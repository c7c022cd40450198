package otel

import (
	"context"

	"github.com/pipetriage/pipetriage/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by commands and tool calls
const (
	AttrOpID     = "pipetriage.op_id"
	AttrCommand  = "pipetriage.command"
	AttrDominant = "pipetriage.dominant"
	AttrCatalog  = "pipetriage.catalog_digest"
)

// Start opens a "pipetriage.<name>" span when tracing is enabled in ctx.
// The returned end func records err (if any) and closes the span; it is
// safe to call when tracing is off.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	h := From(ctx)
	if h == nil || h.Tracer == nil {
		return ctx, func(error) {}
	}

	base := []attribute.KeyValue{
		attribute.String(AttrOpID, observability.OpID(ctx)),
		attribute.String(AttrCommand, name),
	}
	ctx, span := h.Tracer.Start(ctx, "pipetriage."+name,
		trace.WithAttributes(append(base, attrs...)...))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed")
		} else {
			span.SetStatus(codes.Ok, "success")
		}
		span.End()
	}
}

// Annotate adds attributes to the active span, if any
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
