package order

import "time"

// OrderPlacedEvent is emitted once a checkout has committed. Subscribers use it
// to send the confirmation email.
type OrderPlacedEvent struct {
	Order      *Order
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{Order: o.Clone(), OccurredAt: time.Now().UTC()}
}

// OrderCancelledEvent is emitted after the cancellation flow persisted the
// order and restocked its lines.
type OrderCancelledEvent struct {
	Order      *Order
	Reason     string
	OccurredAt time.Time
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order, reason string) OrderCancelledEvent {
	return OrderCancelledEvent{Order: o.Clone(), Reason: reason, OccurredAt: time.Now().UTC()}
}

// OrderStatusChangedEvent is emitted for any other status change.
type OrderStatusChangedEvent struct {
	Order      *Order
	From       Status
	OccurredAt time.Time
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{Order: o.Clone(), From: from, OccurredAt: time.Now().UTC()}
}
