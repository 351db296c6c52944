package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	domoutbox "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseGet              = "order.get"
	useCaseGetByNumber      = "order.get_by_number"
	useCaseListByUser       = "order.list_by_user"
	useCaseUpdateStatus     = "order.update_status"
	useCaseSetPaymentStatus = "order.set_payment_status"
	useCaseAddTracking      = "order.add_tracking"

	statusUpdateReason = "cancelled by status update"
)

// Service exposes order queries and the non-checkout lifecycle operations.
type Service struct {
	repo      domorder.Repository
	reads     Reader
	canceller application.UseCase[CancelInput, *domorder.Order]
	publisher domoutbox.Publisher
	cache     application.Cache
	in        *application.Instruments
}

type Option func(*Service)

func WithReader(r Reader) Option {
	return func(s *Service) {
		if r != nil {
			s.reads = r
		}
	}
}

func WithCache(c application.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func NewService(
	repo domorder.Repository,
	canceller application.UseCase[CancelInput, *domorder.Order],
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		reads:     repo,
		canceller: canceller,
		publisher: publisher,
		cache:     application.NopCache{},
		in:        application.NewInstruments(tel, orderService),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (_ *domorder.Order, err error) {
	ctx, call := s.in.Start(ctx, useCaseGet, "GetOrder", attribute.String("order.id", id))
	defer call.End(&err)

	if strings.TrimSpace(id) == "" {
		return nil, call.Fail("ORDER_ID_REQUIRED", application.Validation("order id is required"))
	}
	o, err := s.reads.Get(ctx, id)
	if err != nil {
		return nil, call.Fail("ORDER_LOAD_FAILED", err)
	}
	return o, nil
}

func (s *Service) GetByNumber(ctx context.Context, number string) (_ *domorder.Order, err error) {
	ctx, call := s.in.Start(ctx, useCaseGetByNumber, "GetOrderByNumber", attribute.String("order.number", number))
	defer call.End(&err)

	if strings.TrimSpace(number) == "" {
		return nil, call.Fail("ORDER_NUMBER_REQUIRED", application.Validation("order number is required"))
	}
	o, err := s.reads.GetByNumber(ctx, number)
	if err != nil {
		return nil, call.Fail("ORDER_LOAD_FAILED", err)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) (_ []*domorder.Order, err error) {
	ctx, call := s.in.Start(ctx, useCaseListByUser, "ListOrders", attribute.String("user.id", userID))
	defer call.End(&err)

	if strings.TrimSpace(userID) == "" {
		return nil, call.Fail("USER_ID_REQUIRED", application.Validation("user id is required"))
	}
	orders, err := s.reads.ListByUser(ctx, userID)
	if err != nil {
		return nil, call.Fail("REPO_LIST_FAILED", fmt.Errorf("order: list: %w", err))
	}
	call.Field("count", len(orders))
	return orders, nil
}

// UpdateStatus applies a generic transition. CANCELLED on an order that is
// still cancellable goes through the cancellation flow so stock is returned.
func (s *Service) UpdateStatus(ctx context.Context, id string, next domorder.Status) (_ *domorder.Order, err error) {
	ctx, call := s.in.Start(ctx, useCaseUpdateStatus, "UpdateStatus",
		attribute.String("order.id", id),
		attribute.String("order.next_status", string(next)),
	)
	defer call.End(&err)

	if _, ok := domorder.StateOf(next); !ok {
		return nil, call.Fail("STATUS_INVALID", application.Validation(fmt.Sprintf("unknown order status %q", next)))
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, call.Fail("ORDER_LOAD_FAILED", err)
	}

	if next == domorder.StatusCancelled && o.Cancellable() {
		call.Status("ROUTED_TO_CANCEL")
		cancelled, err := s.canceller.Execute(ctx, CancelInput{OrderID: id, Reason: statusUpdateReason})
		if err != nil {
			return cancelled, call.Fail("CANCEL_FAILED", err)
		}
		return cancelled, nil
	}

	from := o.Status
	if err := o.Transition(next); err != nil {
		return nil, call.Fail("INVALID_TRANSITION", err)
	}
	if err := s.update(ctx, o); err != nil {
		return nil, call.Fail(updateStatus(err), err)
	}

	publish(ctx, s.in, call, s.publisher, domorder.NewOrderStatusChangedEvent(o, from))
	return o, nil
}

// SetPaymentStatus records the payment side. COMPLETED on a PENDING order
// also confirms it.
func (s *Service) SetPaymentStatus(ctx context.Context, id string, status payment.Status) (_ *domorder.Order, err error) {
	ctx, call := s.in.Start(ctx, useCaseSetPaymentStatus, "SetPaymentStatus",
		attribute.String("order.id", id),
		attribute.String("payment.status", string(status)),
	)
	defer call.End(&err)

	if !status.Valid() {
		return nil, call.Fail("PAYMENT_STATUS_INVALID", application.Validation(fmt.Sprintf("unknown payment status %q", status)))
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, call.Fail("ORDER_LOAD_FAILED", err)
	}
	from := o.Status
	if err := o.SetPaymentStatus(status); err != nil {
		return nil, call.Fail("INVALID_TRANSITION", err)
	}
	if err := s.update(ctx, o); err != nil {
		return nil, call.Fail(updateStatus(err), err)
	}

	if o.Status != from {
		publish(ctx, s.in, call, s.publisher, domorder.NewOrderStatusChangedEvent(o, from))
	}
	return o, nil
}

func (s *Service) AddTrackingInfo(ctx context.Context, id, trackingNumber, carrier string) (_ *domorder.Order, err error) {
	ctx, call := s.in.Start(ctx, useCaseAddTracking, "AddTrackingInfo", attribute.String("order.id", id))
	defer call.End(&err)

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, call.Fail("ORDER_LOAD_FAILED", err)
	}
	if err := o.AddTrackingInfo(trackingNumber, carrier); err != nil {
		if errors.Is(err, domorder.ErrTrackingRequired) {
			return nil, call.Fail("TRACKING_REQUIRED", fmt.Errorf("%w: %w", application.ErrValidation, err))
		}
		return nil, call.Fail("INVALID_STATE", err)
	}
	if err := s.update(ctx, o); err != nil {
		return nil, call.Fail(updateStatus(err), err)
	}
	return o, nil
}

func (s *Service) update(ctx context.Context, o *domorder.Order) error {
	if err := s.repo.Update(ctx, o); err != nil {
		if errors.Is(err, domorder.ErrConflict) {
			return err
		}
		return fmt.Errorf("order: update: %w", err)
	}
	s.cache.Evict(ctx, application.ScopeOrder, o.ID)
	s.cache.Evict(ctx, application.ScopeOrdersByUser, o.UserID)
	return nil
}

func updateStatus(err error) string {
	if errors.Is(err, domorder.ErrConflict) {
		return "VERSION_CONFLICT"
	}
	return "REPO_UPDATE_FAILED"
}
