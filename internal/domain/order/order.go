package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: conflict")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrInvalidState      = errors.New("order: invalid state for operation")
	ErrEmptyItems        = errors.New("order: at least one item is required")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount     = errors.New("order: amount must be zero or greater")
	ErrTrackingRequired  = errors.New("order: tracking number is required")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every order status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCompleted,
	StatusCancelled,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := states[st]; !ok {
		return "", fmt.Errorf("order: unknown status %q", s)
	}
	return st, nil
}

// Item is an immutable snapshot of a cart line taken at checkout.
type Item struct {
	ProductID   string
	ProductName string
	ImageURL    string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

func NewItem(productID, name, imageURL string, unitPrice decimal.Decimal, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return Item{}, ErrInvalidAmount
	}
	return Item{
		ProductID:   productID,
		ProductName: name,
		ImageURL:    imageURL,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}, nil
}

type ShippingAddress struct {
	FullName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Order is created once per successful checkout. Items and TotalAmount never
// change after creation.
type Order struct {
	ID              string
	Number          string
	UserID          string
	Items           []Item
	TotalAmount     decimal.Decimal
	ShippingAddress ShippingAddress
	PaymentMethod   payment.Method
	Status          Status
	PaymentStatus   payment.Status
	TrackingNumber  string
	Carrier         string
	CancelReason    string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds a PENDING order with payment PENDING. Items are copied.
func New(
	id, number, userID string,
	items []Item,
	total decimal.Decimal,
	address ShippingAddress,
	method payment.Method,
) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	if total.IsNegative() {
		return nil, ErrInvalidAmount
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		Number:          number,
		UserID:          userID,
		Items:           append([]Item(nil), items...),
		TotalAmount:     total,
		ShippingAddress: address,
		PaymentMethod:   method,
		Status:          StatusPending,
		PaymentStatus:   payment.StatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Transition moves the order to next if the status table allows it.
func (o *Order) Transition(next Status) error {
	from := o.state()
	if !from.Allows(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from.Status(), next)
	}
	o.Status = next
	states[next].onEnter(o)
	o.touch()
	return nil
}

// CanTransition reports whether next is reachable from the current status.
func (o *Order) CanTransition(next Status) bool {
	return o.state().Allows(next)
}

// Cancellable reports whether the cancellation flow (with restock) applies.
func (o *Order) Cancellable() bool {
	return o.state().Cancellable()
}

// Cancel moves a PENDING, CONFIRMED or PROCESSING order to CANCELLED.
func (o *Order) Cancel(reason string) error {
	if !o.Cancellable() {
		return fmt.Errorf("%w: cannot cancel order in %s", ErrInvalidState, o.Status)
	}
	if err := o.Transition(StatusCancelled); err != nil {
		return err
	}
	o.CancelReason = reason
	return nil
}

// SetPaymentStatus records a payment status. A COMPLETED payment on a PENDING
// order advances it to CONFIRMED; no other status changes are implied.
func (o *Order) SetPaymentStatus(status payment.Status) error {
	if !status.Valid() {
		return fmt.Errorf("order: unknown payment status %q", status)
	}
	o.PaymentStatus = status
	if status == payment.StatusCompleted && o.Status == StatusPending {
		return o.Transition(StatusConfirmed)
	}
	o.touch()
	return nil
}

// AddTrackingInfo is only legal while the order is SHIPPED.
func (o *Order) AddTrackingInfo(trackingNumber, carrier string) error {
	if o.Status != StatusShipped {
		return fmt.Errorf("%w: tracking requires %s, order is %s", ErrInvalidState, StatusShipped, o.Status)
	}
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return ErrTrackingRequired
	}
	o.TrackingNumber = trackingNumber
	o.Carrier = strings.TrimSpace(carrier)
	o.touch()
	return nil
}

func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

func (o *Order) state() State {
	if s, ok := states[o.Status]; ok {
		return s
	}
	return unknownState{status: o.Status}
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
