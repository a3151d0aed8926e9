package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

const (
	tracerName = "github.com/quanta-kt/CosmicDiversBot"
)

// GetTracer returns the tracer for the bot.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartCommandSpan starts a span covering one command invocation.
func StartCommandSpan(ctx context.Context, command string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("command.name", command)}
	if id := platformerrors.InvocationIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("command.invocation_id", id))
	}
	return GetTracer().Start(ctx, "command."+command,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// StartEventSpan starts a span covering one gateway event handler.
func StartEventSpan(ctx context.Context, event string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "event."+event,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("event.name", event)),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error, severity string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(
		attribute.String("error.severity", severity),
		attribute.String("error.type", string(platformerrors.TypeOf(err))),
	)
}

func traceAttrs(err error) trace.EventOption {
	return trace.WithAttributes(attribute.String("reason", err.Error()))
}
