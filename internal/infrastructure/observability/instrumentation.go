package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// CommandRecorder receives one sample per finished command.
type CommandRecorder interface {
	CommandFinished(command, outcome string, elapsed time.Duration)
}

// CommandInstrumentation traces and measures command invocations.
type CommandInstrumentation struct {
	recorder CommandRecorder
}

// NewCommandInstrumentation creates the instrumentation.
func NewCommandInstrumentation(recorder CommandRecorder) *CommandInstrumentation {
	return &CommandInstrumentation{recorder: recorder}
}

// StartCommand opens a span; the returned func ends it with the outcome.
func (i *CommandInstrumentation) StartCommand(ctx context.Context, name string) (context.Context, func(outcome string, err error)) {
	start := time.Now()
	ctx, span := StartCommandSpan(ctx, name)

	return ctx, func(outcome string, err error) {
		span.SetAttributes(attribute.String("command.outcome", outcome))
		if outcome == "unexpected" {
			RecordError(span, err, "error")
		} else if err != nil {
			span.AddEvent("command.rejected", traceAttrs(err))
		}
		span.End()

		if i.recorder != nil {
			i.recorder.CommandFinished(name, outcome, time.Since(start))
		}
	}
}
