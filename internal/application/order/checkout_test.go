package order_test

import (
	"context"
	"testing"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	apporder "github.com/adityaanikam/ecommerce-site-sub000/internal/application/order"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "A", "10.00", 5)
	f.product(t, "B", "20.00", 3)

	o := f.placeOrder(t, "u1")

	assert.Equal(t, domorder.StatusPending, o.Status)
	assert.Equal(t, payment.StatusPending, o.PaymentStatus)
	assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{8}$`, o.Number)
	require.Len(t, o.Items, 2)
	// 40 subtotal + 4 tax + 10 shipping
	assert.Equal(t, "54.00", o.TotalAmount.StringFixed(2))

	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Equal(t, 2, f.stock(t, "B"))

	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	stored, err := f.orders.GetByNumber(ctx, o.Number)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)

	assert.Equal(t, []string{"order.placed"}, f.publisher.names())
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.checkout.Execute(context.Background(), validInput("u1"))
	assert.ErrorIs(t, err, apporder.ErrEmptyCart)
	assert.Empty(t, f.publisher.names())
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t, nil)

	in := validInput("u1")
	in.ShippingAddress.City = " "
	_, err := f.checkout.Execute(context.Background(), in)
	assert.ErrorIs(t, err, application.ErrValidation)

	in = validInput("u1")
	in.PaymentMethod = payment.Method("BITCOIN")
	_, err = f.checkout.Execute(context.Background(), in)
	assert.ErrorIs(t, err, application.ErrValidation)

	_, err = f.checkout.Execute(context.Background(), validInput(""))
	assert.ErrorIs(t, err, application.ErrValidation)
}

func TestCheckout_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "A", "10.00", 5)
	f.add(t, "u1", "A", 4)

	// someone else buys stock after the line was added
	_, err := f.ledger.Debit(ctx, "A", 3)
	require.NoError(t, err)

	_, err = f.checkout.Execute(ctx, validInput("u1"))
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)

	assert.Equal(t, 2, f.stock(t, "A"))
	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, c.QuantityOf("A"))

	orders, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_LateDebitFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "A", "10.00", 5)
	f.product(t, "B", "20.00", 3)
	f.add(t, "u1", "A", 2)
	f.add(t, "u1", "B", 1)
	f.products.failDebit["B"] = true

	_, err := f.checkout.Execute(ctx, validInput("u1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)

	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Equal(t, 3, f.stock(t, "B"))

	orders, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)

	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.QuantityOf("A"))
	assert.Equal(t, 1, c.QuantityOf("B"))
	assert.Empty(t, f.publisher.names())
}

func TestCheckout_DeactivatedProductFailsAsInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "A", "10.00", 5)
	f.product(t, "B", "20.00", 3)
	f.add(t, "u1", "A", 2)
	f.add(t, "u1", "B", 1)

	_, err := f.ledger.SetActive(ctx, "B", false)
	require.NoError(t, err)

	_, err = f.checkout.Execute(ctx, validInput("u1"))
	require.ErrorIs(t, err, dominv.ErrInsufficientStock)
	var se *dominv.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "B", se.ProductID)
	assert.True(t, se.Inactive)

	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Equal(t, 3, f.stock(t, "B"))
	orders, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_ProductDeactivatedBeforeDebitRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.product(t, "A", "10.00", 5)
	f.product(t, "B", "20.00", 3)
	f.add(t, "u1", "A", 2)
	f.add(t, "u1", "B", 1)
	f.products.deactivateOnDebit["B"] = true

	_, err := f.checkout.Execute(ctx, validInput("u1"))
	require.ErrorIs(t, err, dominv.ErrInsufficientStock)
	var se *dominv.StockError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Inactive)

	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Equal(t, 3, f.stock(t, "B"))
	orders, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.publisher.names())
}

func TestCheckout_RetriesOnNumberCollision(t *testing.T) {
	numbers := &sequenceNumbers{numbers: []string{"ORD-1", "ORD-1", "ORD-2"}}
	f := newFixture(t, numbers)
	f.product(t, "A", "10.00", 10)
	f.product(t, "B", "10.00", 10)

	first := f.placeOrder(t, "u1")
	assert.Equal(t, "ORD-1", first.Number)

	second := f.placeOrder(t, "u2")
	assert.Equal(t, "ORD-2", second.Number)
	assert.Equal(t, 3, numbers.calls)
}

func TestCheckout_GivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &sequenceNumbers{numbers: []string{"ORD-1"}})
	f.product(t, "A", "10.00", 10)
	f.product(t, "B", "10.00", 10)
	f.placeOrder(t, "u1")

	f.add(t, "u2", "A", 1)
	_, err := f.checkout.Execute(ctx, validInput("u2"))
	assert.ErrorIs(t, err, domorder.ErrConflict)
	assert.Equal(t, 8, f.stock(t, "A"))
}
