package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("inventory: product not found")
	ErrConflict          = errors.New("inventory: product already exists")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInvalidStock      = errors.New("inventory: stock must be zero or greater")
	ErrInvalidPrice      = errors.New("inventory: price must be zero or greater")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrUnavailable       = errors.New("inventory: product unavailable")
)

// StockError reports which product could not supply the requested quantity.
// It matches ErrInsufficientStock under errors.Is; an inactive product also
// matches ErrUnavailable.
type StockError struct {
	ProductID string
	Requested int
	Available int
	Inactive  bool
}

func (e *StockError) Error() string {
	if e.Inactive {
		return fmt.Sprintf("inventory: insufficient stock for product %s: requested %d, product inactive",
			e.ProductID, e.Requested)
	}
	return fmt.Sprintf("inventory: insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() []error {
	if e.Inactive {
		return []error{ErrInsufficientStock, ErrUnavailable}
	}
	return []error{ErrInsufficientStock}
}

// Product carries the inventory-relevant view of a catalog product.
// Stock is only mutated through Repository.Debit and Repository.Credit.
type Product struct {
	ID            string
	Name          string
	ImageURL      string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         int
	Active        bool
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewProduct(id, name, imageURL string, price decimal.Decimal, discount *decimal.Decimal, stock int) (*Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("inventory: product id is required")
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if discount != nil && discount.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	now := time.Now().UTC()
	return &Product{
		ID:            id,
		Name:          name,
		ImageURL:      imageURL,
		Price:         price,
		DiscountPrice: discount,
		Stock:         stock,
		Active:        true,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// EffectivePrice is the discount price when one is set and positive, else the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

// CanSupply reports whether quantity units could be debited right now. The
// store refuses debits on inactive products, so those fail as a *StockError too.
func (p *Product) CanSupply(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !p.Active {
		return &StockError{ProductID: p.ID, Requested: quantity, Available: p.Stock, Inactive: true}
	}
	if p.Stock < quantity {
		return &StockError{ProductID: p.ID, Requested: quantity, Available: p.Stock}
	}
	return nil
}

func (p *Product) SetPrice(price decimal.Decimal, discount *decimal.Decimal) error {
	if price.IsNegative() || (discount != nil && discount.IsNegative()) {
		return ErrInvalidPrice
	}
	p.Price = price
	p.DiscountPrice = discount
	p.touch()
	return nil
}

func (p *Product) SetActive(active bool) {
	p.Active = active
	p.touch()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.DiscountPrice != nil {
		d := *p.DiscountPrice
		c.DiscountPrice = &d
	}
	return &c
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
