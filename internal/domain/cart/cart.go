package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrItemNotFound    = errors.New("cart: item not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrInvalidDiscount = errors.New("cart: discount must be zero or greater")
)

// Item is one cart line. Name, image and unit price are snapshots taken when
// the line was added (or last reconciled).
type Item struct {
	ProductID   string
	ProductName string
	ImageURL    string
	UnitPrice   decimal.Decimal
	Quantity    int
}

func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is owned by exactly one user. The totals are derived by Recalculate and
// never set by callers.
type Cart struct {
	UserID    string
	Items     []Item
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		Items:     []Item{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// QuantityOf returns the quantity already in the cart for productID, or 0.
func (c *Cart) QuantityOf(productID string) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Add merges item into an existing line for the same product (summing
// quantities and refreshing the snapshot) or appends a new line.
func (c *Cart) Add(item Item) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i := c.indexOf(item.ProductID); i >= 0 {
		item.Quantity += c.Items[i].Quantity
		c.Items[i] = item
	} else {
		c.Items = append(c.Items, item)
	}
	c.touch()
	return nil
}

func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items[i].Quantity = quantity
	c.touch()
	return nil
}

func (c *Cart) Remove(productID string) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return nil
}

// Clear drops every line and zeroes all totals including the discount.
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.Discount = decimal.Zero
	c.Subtotal = decimal.Zero
	c.Tax = decimal.Zero
	c.Shipping = decimal.Zero
	c.Total = decimal.Zero
	c.touch()
}

func (c *Cart) SetDiscount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidDiscount
	}
	c.Discount = amount
	c.touch()
	return nil
}

// Recalculate derives the totals from the current lines and discount.
func (c *Cart) Recalculate(p Pricing) {
	t := p.Compute(c.Items, c.Discount)
	c.Subtotal = t.Subtotal
	c.Tax = t.Tax
	c.Shipping = t.Shipping
	c.Total = t.Total
}

// ProductState is the live catalog view used by Reconcile.
type ProductState struct {
	Exists   bool
	Active   bool
	Stock    int
	Price    decimal.Decimal
	Name     string
	ImageURL string
}

// Reconcile re-synchronises lines against live product state: lines for
// missing or inactive products are dropped, quantities are clamped to the
// available stock (dropping lines with no stock) and prices refreshed.
// It reports whether any line changed.
func (c *Cart) Reconcile(states map[string]ProductState) bool {
	modified := false
	kept := c.Items[:0]
	for _, item := range c.Items {
		st, ok := states[item.ProductID]
		if !ok || !st.Exists || !st.Active || st.Stock <= 0 {
			modified = true
			continue
		}
		if item.Quantity > st.Stock {
			item.Quantity = st.Stock
			modified = true
		}
		if !item.UnitPrice.Equal(st.Price) {
			item.UnitPrice = st.Price
			modified = true
		}
		item.ProductName = st.Name
		item.ImageURL = st.ImageURL
		kept = append(kept, item)
	}
	c.Items = kept
	if modified {
		c.touch()
	}
	return modified
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	return &clone
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
