package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	domoutbox "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability/logctx"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	orderService    = "order-service"
	useCaseCheckout = "order.checkout"

	numberAttempts = 3
)

type CheckoutInput struct {
	UserID          string
	ShippingAddress domorder.ShippingAddress
	PaymentMethod   payment.Method
}

// CheckoutUseCase converts a cart into an order as a saga:
// persist order, debit every line, clear the cart. A failure after the order
// was persisted undoes the debits already applied and deletes the order.
type CheckoutUseCase struct {
	orders    domorder.Repository
	carts     CartStore
	inventory Inventory
	ids       application.IDGenerator
	numbers   NumberGenerator
	publisher domoutbox.Publisher
	cache     application.Cache
	in        *application.Instruments

	compensations observability.Counter // checkout_compensations_total{step,outcome}
}

var _ application.UseCase[CheckoutInput, *domorder.Order] = (*CheckoutUseCase)(nil)

func NewCheckoutUseCase(
	orders domorder.Repository,
	carts CartStore,
	inventory Inventory,
	ids application.IDGenerator,
	numbers NumberGenerator,
	publisher domoutbox.Publisher,
	cache application.Cache,
	tel observability.Observability,
) *CheckoutUseCase {
	if cache == nil {
		cache = application.NopCache{}
	}
	in := application.NewInstruments(tel, orderService)
	return &CheckoutUseCase{
		orders:        orders,
		carts:         carts,
		inventory:     inventory,
		ids:           ids,
		numbers:       numbers,
		publisher:     publisher,
		cache:         cache,
		in:            in,
		compensations: in.Counter(observability.MCheckoutCompensations),
	}
}

func (uc *CheckoutUseCase) Execute(ctx context.Context, cmd CheckoutInput) (_ *domorder.Order, err error) {
	ctx, call := uc.in.Start(ctx, useCaseCheckout, "Checkout",
		attribute.String("user.id", cmd.UserID),
		attribute.String("payment.method", string(cmd.PaymentMethod)),
	)
	defer call.End(&err)

	if err := validateCheckout(cmd); err != nil {
		return nil, call.Fail("VALIDATION_FAILED", err)
	}

	cart, err := uc.carts.Snapshot(ctx, cmd.UserID)
	if err != nil {
		return nil, call.Fail("CART_LOAD_FAILED", err)
	}
	if cart.IsEmpty() {
		return nil, call.Fail("EMPTY_CART", ErrEmptyCart)
	}

	// advisory only: nothing is held until the debits below
	for _, line := range cart.Items {
		if err := uc.inventory.CheckAvailable(ctx, line.ProductID, line.Quantity); err != nil {
			return nil, call.Fail("STOCK_CHECK_FAILED", err)
		}
	}

	items := make([]domorder.Item, 0, len(cart.Items))
	for _, line := range cart.Items {
		item, err := domorder.NewItem(line.ProductID, line.ProductName, line.ImageURL, line.UnitPrice, line.Quantity)
		if err != nil {
			return nil, call.Fail("DOMAIN_CONSTRUCTION_FAILED", fmt.Errorf("order: snapshot item: %w", err))
		}
		items = append(items, item)
	}

	entity, err := uc.insert(ctx, cmd, items, cart.Total)
	if err != nil {
		return nil, call.Fail("REPO_INSERT_FAILED", err)
	}
	call.Field("order_id", entity.ID)
	call.Field("order_number", entity.Number)
	call.Span().SetAttributes(attribute.String("order.id", entity.ID))

	debited := make([]domorder.Item, 0, len(entity.Items))
	for _, item := range entity.Items {
		if _, err := uc.inventory.Debit(ctx, item.ProductID, item.Quantity); err != nil {
			cerr := uc.compensate(ctx, call, entity, debited)
			return nil, call.Fail("DEBIT_FAILED", errors.Join(err, cerr))
		}
		debited = append(debited, item)
	}

	if _, err := uc.carts.Clear(ctx, cmd.UserID); err != nil {
		cerr := uc.compensate(ctx, call, entity, debited)
		return nil, call.Fail("CART_CLEAR_FAILED", errors.Join(fmt.Errorf("order: clear cart: %w", err), cerr))
	}

	uc.cache.Evict(ctx, application.ScopeCart, cmd.UserID)
	uc.cache.Evict(ctx, application.ScopeOrdersByUser, cmd.UserID)

	publish(ctx, uc.in, call, uc.publisher, domorder.NewOrderPlacedEvent(entity))
	return entity, nil
}

// insert retries with a fresh number when the store reports a collision.
func (uc *CheckoutUseCase) insert(ctx context.Context, cmd CheckoutInput, items []domorder.Item, total decimal.Decimal) (*domorder.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= numberAttempts; attempt++ {
		entity, err := domorder.New(
			uc.ids.NewID(),
			uc.numbers.NewNumber(time.Now().UTC()),
			cmd.UserID,
			items,
			total,
			cmd.ShippingAddress,
			cmd.PaymentMethod,
		)
		if err != nil {
			return nil, fmt.Errorf("order: construct: %w", err)
		}
		err = uc.orders.Insert(ctx, entity)
		if err == nil {
			return entity, nil
		}
		if !errors.Is(err, domorder.ErrConflict) {
			return nil, fmt.Errorf("order: insert: %w", err)
		}
		lastErr = err
		logctx.FromOr(ctx, uc.in.Logger()).Warn("order_number_collision",
			observability.F("attempt", attempt),
			observability.F("order_number", entity.Number),
		)
	}
	return nil, fmt.Errorf("order: insert after %d attempts: %w", numberAttempts, lastErr)
}

// compensate credits back every debited line and deletes the order. It runs
// detached from ctx cancellation so an aborted request still rolls back.
func (uc *CheckoutUseCase) compensate(ctx context.Context, call *application.Call, o *domorder.Order, debited []domorder.Item) error {
	ctx = context.WithoutCancel(ctx)
	logger := call.Logger().With(observability.F("order_id", o.ID))

	var errs []error
	for i := len(debited) - 1; i >= 0; i-- {
		item := debited[i]
		_, err := uc.inventory.Credit(ctx, item.ProductID, item.Quantity)
		uc.countCompensation("credit", err)
		if err != nil {
			logger.Error("checkout_compensation_failed",
				observability.F("step", "credit"),
				observability.F("product_id", item.ProductID),
				observability.F("quantity", item.Quantity),
				observability.F("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("order: compensate credit %s: %w", item.ProductID, err))
		}
	}

	err := uc.orders.Delete(ctx, o.ID)
	uc.countCompensation("delete_order", err)
	if err != nil {
		logger.Error("checkout_compensation_failed",
			observability.F("step", "delete_order"),
			observability.F("error", err.Error()),
		)
		errs = append(errs, fmt.Errorf("order: compensate delete: %w", err))
	}

	logger.Warn("checkout_compensated",
		observability.F("credited_lines", len(debited)),
		observability.F("failures", len(errs)),
	)
	return errors.Join(errs...)
}

func (uc *CheckoutUseCase) countCompensation(step string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	uc.compensations.Add(1,
		observability.L("step", step),
		observability.L("outcome", outcome),
	)
}

func validateCheckout(cmd CheckoutInput) error {
	if strings.TrimSpace(cmd.UserID) == "" {
		return application.Validation("user id is required")
	}
	if !cmd.PaymentMethod.Valid() {
		return application.Validation(fmt.Sprintf("unknown payment method %q", cmd.PaymentMethod))
	}
	a := cmd.ShippingAddress
	required := []struct{ name, value string }{
		{"full name", a.FullName},
		{"address line", a.Line1},
		{"city", a.City},
		{"postal code", a.PostalCode},
		{"country", a.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return application.Validation("shipping " + f.name + " is required")
		}
	}
	return nil
}
