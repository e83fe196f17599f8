package production

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/rafcore/internal/core"
)

// OTelObserver turns every Change into a zero-duration span recording what
// changed: one span per node-lifecycle event, tagged with run/step
// metadata, rather than wrapping a long-lived operation.
type OTelObserver struct {
	tracer trace.Tracer
}

func NewOTelObserver(tracer trace.Tracer) *OTelObserver {
	return &OTelObserver{tracer: tracer}
}

func (o *OTelObserver) Notify(c core.Change) {
	_, span := o.tracer.Start(context.Background(), string(c.Kind))
	defer span.End()

	span.SetAttributes(
		attribute.String("subject", c.Subject),
		attribute.String("property", c.Property),
	)
	if before, ok := c.Before.(string); ok {
		span.SetAttributes(attribute.String("before", before))
	}
	if after, ok := c.After.(string); ok {
		span.SetAttributes(attribute.String("after", after))
	}
	if after, ok := c.After.(int); ok {
		span.SetAttributes(attribute.Int("after", after))
		if after < 0 {
			span.SetStatus(codes.Error, "non-success outcome")
		}
	}
	for k, v := range c.Info {
		if s, ok := v.(string); ok {
			span.SetAttributes(attribute.String("info."+k, s))
		}
	}
}
