package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	domoutbox "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseCancel = "order.cancel"

type CancelInput struct {
	OrderID string
	Reason  string
}

// CancelOrderUseCase cancels a PENDING, CONFIRMED or PROCESSING order and
// credits every line back to inventory.
type CancelOrderUseCase struct {
	orders    domorder.Repository
	inventory Inventory
	publisher domoutbox.Publisher
	cache     application.Cache
	in        *application.Instruments
}

var _ application.UseCase[CancelInput, *domorder.Order] = (*CancelOrderUseCase)(nil)

func NewCancelOrderUseCase(
	orders domorder.Repository,
	inventory Inventory,
	publisher domoutbox.Publisher,
	cache application.Cache,
	tel observability.Observability,
) *CancelOrderUseCase {
	if cache == nil {
		cache = application.NopCache{}
	}
	return &CancelOrderUseCase{
		orders:    orders,
		inventory: inventory,
		publisher: publisher,
		cache:     cache,
		in:        application.NewInstruments(tel, orderService),
	}
}

// Execute persists CANCELLED before restocking. The version check on Update
// means only one of two concurrent cancels reaches the credit step. Credit
// failures leave the order cancelled and are returned joined.
func (uc *CancelOrderUseCase) Execute(ctx context.Context, cmd CancelInput) (_ *domorder.Order, err error) {
	ctx, call := uc.in.Start(ctx, useCaseCancel, "CancelOrder", attribute.String("order.id", cmd.OrderID))
	defer call.End(&err)

	if strings.TrimSpace(cmd.OrderID) == "" {
		return nil, call.Fail("ORDER_ID_REQUIRED", application.Validation("order id is required"))
	}

	o, err := uc.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, call.Fail("ORDER_LOAD_FAILED", err)
	}
	call.Field("from_status", string(o.Status))

	if err := o.Cancel(strings.TrimSpace(cmd.Reason)); err != nil {
		return nil, call.Fail("INVALID_STATE", err)
	}
	if err := uc.orders.Update(ctx, o); err != nil {
		if errors.Is(err, domorder.ErrConflict) {
			return nil, call.Fail("VERSION_CONFLICT", err)
		}
		return nil, call.Fail("REPO_UPDATE_FAILED", fmt.Errorf("order: update: %w", err))
	}

	var creditErrs []error
	for _, item := range o.Items {
		if _, err := uc.inventory.Credit(ctx, item.ProductID, item.Quantity); err != nil {
			call.Logger().Error("cancel_restock_failed",
				observability.F("product_id", item.ProductID),
				observability.F("quantity", item.Quantity),
				observability.F("error", err.Error()),
			)
			creditErrs = append(creditErrs, fmt.Errorf("order: restock %s: %w", item.ProductID, err))
		}
	}

	uc.cache.Evict(ctx, application.ScopeOrder, o.ID)
	uc.cache.Evict(ctx, application.ScopeOrdersByUser, o.UserID)

	publish(ctx, uc.in, call, uc.publisher, domorder.NewOrderCancelledEvent(o, o.CancelReason))

	if len(creditErrs) > 0 {
		return o, call.Fail("RESTOCK_FAILED", errors.Join(creditErrs...))
	}
	return o, nil
}
