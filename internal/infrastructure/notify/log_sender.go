package notify

import (
	"context"

	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability/logctx"
)

// LogSender records notifications in the log instead of sending them. It is
// the default when no message broker is configured.
type LogSender struct {
	log observability.Logger
}

func NewLogSender(logger observability.Logger) *LogSender {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogSender{log: logger.With(observability.F("component", "log_sender"))}
}

func (s *LogSender) SendOrderConfirmation(ctx context.Context, email string, o *domorder.Order) error {
	s.emit(ctx, "order_confirmation", email, o)
	return nil
}

func (s *LogSender) SendOrderCancellation(ctx context.Context, email string, o *domorder.Order, reason string) error {
	s.emit(ctx, "order_cancellation", email, o, observability.F("reason", reason))
	return nil
}

func (s *LogSender) SendOrderStatusUpdate(ctx context.Context, email string, o *domorder.Order) error {
	s.emit(ctx, "order_status_update", email, o)
	return nil
}

func (s *LogSender) emit(ctx context.Context, kind, email string, o *domorder.Order, extra ...observability.Field) {
	fields := append([]observability.Field{
		observability.F("kind", kind),
		observability.F("to", email),
		observability.F("order_id", o.ID),
		observability.F("order_number", o.Number),
		observability.F("status", string(o.Status)),
	}, extra...)
	logctx.FromOr(ctx, s.log).Info("notification_sent", fields...)
}
