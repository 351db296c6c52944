package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("p1", "Widget", "", decimal.NewFromInt(10), nil, 5)
	require.NoError(t, err)
	assert.True(t, p.Active)
	assert.Equal(t, 1, p.Version)

	_, err = NewProduct("p1", "Widget", "", decimal.NewFromInt(-1), nil, 5)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NewProduct("p1", "Widget", "", decimal.NewFromInt(1), nil, -1)
	assert.ErrorIs(t, err, ErrInvalidStock)

	_, err = NewProduct(" ", "Widget", "", decimal.NewFromInt(1), nil, 1)
	assert.Error(t, err)
}

func TestEffectivePrice(t *testing.T) {
	discount := decimal.RequireFromString("7.50")
	p, err := NewProduct("p1", "Widget", "", decimal.NewFromInt(10), &discount, 5)
	require.NoError(t, err)
	assert.True(t, discount.Equal(p.EffectivePrice()))

	zero := decimal.Zero
	require.NoError(t, p.SetPrice(decimal.NewFromInt(10), &zero))
	assert.True(t, decimal.NewFromInt(10).Equal(p.EffectivePrice()))
}

func TestCanSupply(t *testing.T) {
	p, err := NewProduct("p1", "Widget", "", decimal.NewFromInt(10), nil, 5)
	require.NoError(t, err)

	assert.NoError(t, p.CanSupply(5))
	assert.ErrorIs(t, p.CanSupply(0), ErrInvalidQuantity)

	err = p.CanSupply(6)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 5, se.Available)
	assert.Equal(t, 6, se.Requested)

	p.SetActive(false)
	err = p.CanSupply(1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, ErrUnavailable)
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Inactive)
	assert.Contains(t, se.Error(), "inactive")
}

func TestClone_CopiesDiscount(t *testing.T) {
	discount := decimal.NewFromInt(3)
	p, err := NewProduct("p1", "Widget", "", decimal.NewFromInt(10), &discount, 5)
	require.NoError(t, err)

	c := p.Clone()
	*c.DiscountPrice = decimal.NewFromInt(1)
	assert.True(t, decimal.NewFromInt(3).Equal(*p.DiscountPrice))
}
