package apm

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracer_TagsComponentAndRecordsErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID(untraced) = %q, want empty", got)
	}

	ctx, span := NewTracer("pricing").Start(context.Background(), "pricing.calc_impact")
	if TraceID(ctx) == "" {
		t.Error("TraceID() empty inside a span")
	}
	span.NoticeError(nil)
	span.NoticeError(errors.New("pool gone"))
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	s := ended[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want error", s.Status().Code)
	}
	found := false
	for _, kv := range s.Attributes() {
		if kv.Key == "component" && kv.Value.AsString() == "pricing" {
			found = true
		}
	}
	if !found {
		t.Errorf("attributes = %v, want component=pricing", s.Attributes())
	}
}
