package order

import (
	"context"
	"time"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	domoutbox "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// publish is best effort: failures are recorded on the call and never returned.
func publish(ctx context.Context, in *application.Instruments, call *application.Call, pub domoutbox.Publisher, e domoutbox.Event) {
	if pub == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	if err := pub.Publish(pubCtx, e); err != nil {
		outcome = "error"
		call.Status("EVENT_PUBLISH_FAILED")
		call.Span().RecordError(err)
		call.Logger().Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	} else {
		call.Span().AddEvent(e.EventName(), trace.WithAttributes(attribute.String("event", e.EventName())))
	}
	in.External(publishPeer, e.EventName(), outcome, start)
}
