package production

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/comalice/rafcore/internal/core"
)

func TestOTelObserverRecordsSpanAttributes(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	o := NewOTelObserver(tp.Tracer("test"))
	o.Notify(core.Change{
		Kind:     core.EventOutcome,
		Subject:  "root/a",
		Property: "outcome",
		After:    -1,
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != string(core.EventOutcome) {
		t.Fatalf("span name = %q, want %q", span.Name, core.EventOutcome)
	}
	var sawSubject, sawErrStatus bool
	for _, a := range span.Attributes {
		if string(a.Key) == "subject" && a.Value.AsString() == "root/a" {
			sawSubject = true
		}
	}
	if span.Status.Code.String() == "Error" {
		sawErrStatus = true
	}
	if !sawSubject {
		t.Fatal("expected a subject attribute on the span")
	}
	if !sawErrStatus {
		t.Fatal("a negative outcome should set the span status to Error")
	}
}
