package notification

import (
	"context"
	"fmt"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	domoutbox "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	workerService = "notification-worker"

	KindConfirmation = "confirmation"
	KindCancellation = "cancellation"
	KindStatusUpdate = "status_update"
)

// UserDirectory resolves the contact address of a user. Accounts live outside
// this service.
type UserDirectory interface {
	EmailOf(ctx context.Context, userID string) (string, error)
}

// Sender delivers order emails. Rendering is the sender's concern.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, email string, o *domorder.Order) error
	SendOrderCancellation(ctx context.Context, email string, o *domorder.Order, reason string) error
	SendOrderStatusUpdate(ctx context.Context, email string, o *domorder.Order) error
}

// Worker turns order events into emails. Its failures never reach the request
// that produced the event.
type Worker struct {
	subscriber domoutbox.Subscriber
	users      UserDirectory
	sender     Sender
	in         *application.Instruments
	sent       observability.Counter // notifications_total{kind,outcome}
}

func NewWorker(subscriber domoutbox.Subscriber, users UserDirectory, sender Sender, tel observability.Observability) *Worker {
	in := application.NewInstruments(tel, workerService)
	return &Worker{
		subscriber: subscriber,
		users:      users,
		sender:     sender,
		in:         in,
		sent:       in.Counter(observability.MNotifications),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.sender == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.HandleOrderPlaced)
	w.subscriber.Subscribe(domorder.OrderCancelledEvent{}.EventName(), w.HandleOrderCancelled)
	w.subscriber.Subscribe(domorder.OrderStatusChangedEvent{}.EventName(), w.HandleOrderStatusChanged)
}

func (w *Worker) HandleOrderPlaced(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok || evt.Order == nil {
		w.count(KindConfirmation, "ignored")
		return nil
	}
	return w.notify(ctx, KindConfirmation, evt.Order, func(ctx context.Context, email string) error {
		return w.sender.SendOrderConfirmation(ctx, email, evt.Order)
	})
}

func (w *Worker) HandleOrderCancelled(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.OrderCancelledEvent)
	if !ok || evt.Order == nil {
		w.count(KindCancellation, "ignored")
		return nil
	}
	return w.notify(ctx, KindCancellation, evt.Order, func(ctx context.Context, email string) error {
		return w.sender.SendOrderCancellation(ctx, email, evt.Order, evt.Reason)
	})
}

func (w *Worker) HandleOrderStatusChanged(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.OrderStatusChangedEvent)
	if !ok || evt.Order == nil {
		w.count(KindStatusUpdate, "ignored")
		return nil
	}
	return w.notify(ctx, KindStatusUpdate, evt.Order, func(ctx context.Context, email string) error {
		return w.sender.SendOrderStatusUpdate(ctx, email, evt.Order)
	})
}

func (w *Worker) notify(ctx context.Context, kind string, o *domorder.Order, send func(context.Context, string) error) (err error) {
	useCase := "notification." + kind
	ctx, call := w.in.Start(ctx, useCase, "Notify",
		attribute.String("notification.kind", kind),
		attribute.String("order.id", o.ID),
	)
	defer call.End(&err)
	call.Field("order_id", o.ID)
	call.Field("order_status", string(o.Status))

	email, err := w.users.EmailOf(ctx, o.UserID)
	if err != nil {
		w.count(kind, "error")
		return call.Fail("USER_LOOKUP_FAILED", fmt.Errorf("notification: resolve email: %w", err))
	}
	if email == "" {
		w.count(kind, "skipped")
		call.Status("NO_EMAIL")
		return nil
	}

	if err := send(ctx, email); err != nil {
		w.count(kind, "error")
		return call.Fail("SEND_FAILED", fmt.Errorf("notification: send %s: %w", kind, err))
	}
	w.count(kind, "success")
	return nil
}

func (w *Worker) count(kind, outcome string) {
	w.sent.Add(1,
		observability.L("kind", kind),
		observability.L("outcome", outcome),
	)
}
