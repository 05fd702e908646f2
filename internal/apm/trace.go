package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans tagged with the owning component.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span)
}

type componentTracer struct {
	component attribute.KeyValue
	tracer    trace.Tracer
}

// NewTracer returns a tracer bound to the global provider at call time.
// Every span it starts carries component=name.
func NewTracer(name string) Tracer {
	return &componentTracer{
		component: attribute.String("component", name),
		tracer:    otel.Tracer("github.com/fd1az/swapdesk/" + name),
	}
}

func (t *componentTracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, Span) {
	attrs = append(attrs, t.component)
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, NewSpan(span)
}

// TraceID returns the hex trace id of the span in ctx, or "" when ctx is
// not being traced.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
