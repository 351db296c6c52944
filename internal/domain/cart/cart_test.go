package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(id, price string, qty int) Item {
	return Item{ProductID: id, ProductName: "product " + id, UnitPrice: dec(price), Quantity: qty}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestCompute_EmptyCartIsZero(t *testing.T) {
	totals := DefaultPricing().Compute(nil, decimal.Zero)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Shipping.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestCompute_BelowFreeShipping(t *testing.T) {
	totals := DefaultPricing().Compute([]Item{item("p1", "20.00", 2)}, decimal.Zero)

	assertMoney(t, "40.00", totals.Subtotal)
	assertMoney(t, "4.00", totals.Tax)
	assertMoney(t, "10.00", totals.Shipping)
	assertMoney(t, "54.00", totals.Total)
}

func TestCompute_FreeShippingAtThreshold(t *testing.T) {
	totals := DefaultPricing().Compute([]Item{item("p1", "25.00", 2)}, decimal.Zero)

	assertMoney(t, "50.00", totals.Subtotal)
	assertMoney(t, "5.00", totals.Tax)
	assert.True(t, totals.Shipping.IsZero())
	assertMoney(t, "55.00", totals.Total)
}

func TestCompute_TaxRoundsToCents(t *testing.T) {
	totals := DefaultPricing().Compute([]Item{item("p1", "9.99", 3)}, decimal.Zero)

	assertMoney(t, "29.97", totals.Subtotal)
	assertMoney(t, "3.00", totals.Tax)
	assertMoney(t, "42.97", totals.Total)
}

func TestCompute_DiscountNeverDrivesTotalNegative(t *testing.T) {
	totals := DefaultPricing().Compute([]Item{item("p1", "10.00", 1)}, dec("100"))

	assert.True(t, totals.Total.IsZero())
	assertMoney(t, "100", totals.Discount)
}

func TestCompute_Deterministic(t *testing.T) {
	items := []Item{item("p1", "12.34", 3), item("p2", "0.99", 7)}
	a := DefaultPricing().Compute(items, dec("1.50"))
	b := DefaultPricing().Compute(items, dec("1.50"))

	assert.Equal(t, a.Total.String(), b.Total.String())
	assert.Equal(t, a.Tax.String(), b.Tax.String())
}

func TestAdd_MergesSameProduct(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.Add(item("p1", "5.00", 2)))
	require.NoError(t, c.Add(item("p1", "6.00", 3)))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assertMoney(t, "6.00", c.Items[0].UnitPrice)
	assert.Equal(t, 5, c.QuantityOf("p1"))
}

func TestAdd_RejectsNonPositiveQuantity(t *testing.T) {
	c := New("u1")
	assert.ErrorIs(t, c.Add(item("p1", "5.00", 0)), ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestSetQuantityAndRemove(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.Add(item("p1", "5.00", 1)))

	require.NoError(t, c.SetQuantity("p1", 4))
	assert.Equal(t, 4, c.QuantityOf("p1"))
	assert.ErrorIs(t, c.SetQuantity("p1", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, c.SetQuantity("missing", 1), ErrItemNotFound)

	require.NoError(t, c.Remove("p1"))
	assert.True(t, c.IsEmpty())
	assert.ErrorIs(t, c.Remove("p1"), ErrItemNotFound)
}

func TestClear_ZeroesEverything(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.Add(item("p1", "30.00", 2)))
	require.NoError(t, c.SetDiscount(dec("5")))
	c.Recalculate(DefaultPricing())
	require.False(t, c.Total.IsZero())

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.True(t, c.Discount.IsZero())
	assert.True(t, c.Subtotal.IsZero())
	assert.True(t, c.Total.IsZero())
}

func TestSetDiscount_RejectsNegative(t *testing.T) {
	c := New("u1")
	assert.ErrorIs(t, c.SetDiscount(dec("-1")), ErrInvalidDiscount)
}

func TestReconcile(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.Add(item("gone", "1.00", 1)))
	require.NoError(t, c.Add(item("inactive", "1.00", 1)))
	require.NoError(t, c.Add(item("short", "2.00", 5)))
	require.NoError(t, c.Add(item("repriced", "3.00", 1)))
	require.NoError(t, c.Add(item("fine", "4.00", 1)))

	modified := c.Reconcile(map[string]ProductState{
		"inactive": {Exists: true, Active: false, Stock: 10, Price: dec("1.00")},
		"short":    {Exists: true, Active: true, Stock: 2, Price: dec("2.00"), Name: "Short"},
		"repriced": {Exists: true, Active: true, Stock: 10, Price: dec("3.50"), Name: "Repriced"},
		"fine":     {Exists: true, Active: true, Stock: 10, Price: dec("4.00"), Name: "Fine"},
	})

	assert.True(t, modified)
	require.Len(t, c.Items, 3)
	assert.Equal(t, 2, c.QuantityOf("short"))
	assertMoney(t, "3.50", c.Items[1].UnitPrice)
	assert.Zero(t, c.QuantityOf("gone"))
	assert.Zero(t, c.QuantityOf("inactive"))
}

func TestReconcile_Unchanged(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.Add(item("p1", "4.00", 1)))

	modified := c.Reconcile(map[string]ProductState{
		"p1": {Exists: true, Active: true, Stock: 3, Price: dec("4.00"), Name: "product p1"},
	})
	assert.False(t, modified)
}

func TestClone_IsIndependent(t *testing.T) {
	c := New("u1")
	require.NoError(t, c.Add(item("p1", "4.00", 1)))

	clone := c.Clone()
	clone.Items[0].Quantity = 9

	assert.Equal(t, 1, c.QuantityOf("p1"))
}
