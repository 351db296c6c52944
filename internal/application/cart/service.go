package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	domcart "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService = "cart-service"

	useCaseGet            = "cart.get"
	useCaseAddItem        = "cart.add_item"
	useCaseUpdateQuantity = "cart.update_quantity"
	useCaseRemoveItem     = "cart.remove_item"
	useCaseClear          = "cart.clear"
	useCaseValidate       = "cart.validate"
	useCaseApplyDiscount  = "cart.apply_discount"
	useCaseRemoveDiscount = "cart.remove_discount"
)

// Inventory is the read-only view of the ledger the cart validates against.
// Product must bypass any cache.
type Inventory interface {
	GetProduct(ctx context.Context, id string) (*dominv.Product, error)
	Product(ctx context.Context, id string) (*dominv.Product, error)
	CheckAvailable(ctx context.Context, productID string, quantity int) error
}

// Reader serves Get, typically through a cache decorator.
type Reader interface {
	Get(ctx context.Context, userID string) (*domcart.Cart, error)
}

type Service struct {
	repo      domcart.Repository
	reads     Reader
	inventory Inventory
	pricing   domcart.Pricing
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

func WithPricing(p domcart.Pricing) Option {
	return func(s *Service) { s.pricing = p }
}

func NewService(repo domcart.Repository, inventory Inventory, tel observability.Observability, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		reads:     repo,
		inventory: inventory,
		pricing:   domcart.DefaultPricing(),
		cache:     application.NopCache{},
		in:        application.NewInstruments(tel, cartService),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's cart. A user without one gets an empty cart that is
// not persisted.
func (s *Service) Get(ctx context.Context, userID string) (_ *domcart.Cart, err error) {
	ctx, call := s.in.Start(ctx, useCaseGet, "GetCart", attribute.String("user.id", userID))
	defer call.End(&err)

	if err := requireUser(userID); err != nil {
		return nil, call.Fail("USER_ID_REQUIRED", err)
	}
	c, err := s.reads.Get(ctx, userID)
	if errors.Is(err, domcart.ErrNotFound) {
		call.Status("EMPTY_CART")
		return domcart.New(userID), nil
	}
	if err != nil {
		return nil, call.Fail("REPO_GET_FAILED", fmt.Errorf("cart: get: %w", err))
	}
	return c, nil
}

// Snapshot loads the stored cart bypassing any cache.
func (s *Service) Snapshot(ctx context.Context, userID string) (*domcart.Cart, error) {
	return s.load(ctx, userID)
}

// AddItem adds quantity of productID, merging with an existing line. The
// merged quantity is what gets checked against stock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (_ *domcart.Cart, err error) {
	ctx, call := s.in.Start(ctx, useCaseAddItem, "AddItem",
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	)
	defer call.End(&err)

	if err := requireUser(userID); err != nil {
		return nil, call.Fail("USER_ID_REQUIRED", err)
	}
	if strings.TrimSpace(productID) == "" {
		return nil, call.Fail("PRODUCT_ID_REQUIRED", application.Validation("product id is required"))
	}
	if quantity <= 0 {
		return nil, call.Fail("QUANTITY_INVALID", application.Validation("quantity must be greater than zero"))
	}

	product, err := s.inventory.GetProduct(ctx, productID)
	if err != nil {
		return nil, call.Fail("PRODUCT_LOAD_FAILED", err)
	}
	if !product.Active {
		return nil, call.Fail("PRODUCT_UNAVAILABLE", fmt.Errorf("%w: %s", dominv.ErrUnavailable, productID))
	}

	c, err := s.mutate(ctx, userID, func(c *domcart.Cart) error {
		merged := c.QuantityOf(productID) + quantity
		if err := s.inventory.CheckAvailable(ctx, productID, merged); err != nil {
			return err
		}
		return c.Add(domcart.Item{
			ProductID:   product.ID,
			ProductName: product.Name,
			ImageURL:    product.ImageURL,
			UnitPrice:   product.EffectivePrice(),
			Quantity:    quantity,
		})
	})
	if err != nil {
		return nil, call.Fail(statusFor(err), err)
	}
	return c, nil
}

// UpdateItemQuantity sets the quantity of an existing line. Zero is rejected,
// use RemoveItem instead.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (_ *domcart.Cart, err error) {
	ctx, call := s.in.Start(ctx, useCaseUpdateQuantity, "UpdateItemQuantity",
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	)
	defer call.End(&err)

	if err := requireUser(userID); err != nil {
		return nil, call.Fail("USER_ID_REQUIRED", err)
	}
	if quantity <= 0 {
		return nil, call.Fail("QUANTITY_INVALID", application.Validation("quantity must be greater than zero"))
	}

	c, err := s.mutate(ctx, userID, func(c *domcart.Cart) error {
		if c.QuantityOf(productID) == 0 {
			return domcart.ErrItemNotFound
		}
		if err := s.inventory.CheckAvailable(ctx, productID, quantity); err != nil {
			return err
		}
		return c.SetQuantity(productID, quantity)
	})
	if err != nil {
		return nil, call.Fail(statusFor(err), err)
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (_ *domcart.Cart, err error) {
	ctx, call := s.in.Start(ctx, useCaseRemoveItem, "RemoveItem",
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
	)
	defer call.End(&err)

	if err := requireUser(userID); err != nil {
		return nil, call.Fail("USER_ID_REQUIRED", err)
	}
	c, err := s.mutate(ctx, userID, func(c *domcart.Cart) error {
		return c.Remove(productID)
	})
	if err != nil {
		return nil, call.Fail(statusFor(err), err)
	}
	return c, nil
}

// Clear empties the cart and zeroes every total. It is idempotent.
func (s *Service) Clear(ctx context.Context, userID string) (_ *domcart.Cart, err error) {
	ctx, call := s.in.Start(ctx, useCaseClear, "ClearCart", attribute.String("user.id", userID))
	defer call.End(&err)

	if err := requireUser(userID); err != nil {
		return nil, call.Fail("USER_ID_REQUIRED", err)
	}
	c, err := s.mutate(ctx, userID, func(c *domcart.Cart) error {
		c.Clear()
		return nil
	})
	if err != nil {
		return nil, call.Fail(statusFor(err), err)
	}
	return c, nil
}

// Validate re-synchronises the cart with live product state and reports
// whether any line was dropped, clamped or repriced.
func (s *Service) Validate(ctx context.Context, userID string) (_ *domcart.Cart, modified bool, err error) {
	ctx, call := s.in.Start(ctx, useCaseValidate, "ValidateCart", attribute.String("user.id", userID))
	defer call.End(&err)

	if err := requireUser(userID); err != nil {
		return nil, false, call.Fail("USER_ID_REQUIRED", err)
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, false, call.Fail("REPO_GET_FAILED", err)
	}

	states := make(map[string]domcart.ProductState, len(c.Items))
	for _, item := range c.Items {
		p, err := s.inventory.Product(ctx, item.ProductID)
		if errors.Is(err, dominv.ErrNotFound) {
			states[item.ProductID] = domcart.ProductState{}
			continue
		}
		if err != nil {
			return nil, false, call.Fail("PRODUCT_LOAD_FAILED", err)
		}
		states[item.ProductID] = domcart.ProductState{
			Exists:   true,
			Active:   p.Active,
			Stock:    p.Stock,
			Price:    p.EffectivePrice(),
			Name:     p.Name,
			ImageURL: p.ImageURL,
		}
	}

	modified = c.Reconcile(states)
	call.Field("modified", modified)
	if !modified {
		return c, false, nil
	}
	if err := s.save(ctx, c); err != nil {
		return nil, false, call.Fail("REPO_SAVE_FAILED", err)
	}
	return c, true, nil
}

// ApplyDiscount sets an opaque discount amount coming from a coupon.
func (s *Service) ApplyDiscount(ctx context.Context, userID string, amount decimal.Decimal) (_ *domcart.Cart, err error) {
	ctx, call := s.in.Start(ctx, useCaseApplyDiscount, "ApplyDiscount", attribute.String("user.id", userID))
	defer call.End(&err)

	if err := requireUser(userID); err != nil {
		return nil, call.Fail("USER_ID_REQUIRED", err)
	}
	if amount.IsNegative() {
		return nil, call.Fail("DISCOUNT_INVALID", application.Validation("discount must be zero or greater"))
	}
	c, err := s.mutate(ctx, userID, func(c *domcart.Cart) error {
		return c.SetDiscount(amount)
	})
	if err != nil {
		return nil, call.Fail(statusFor(err), err)
	}
	return c, nil
}

func (s *Service) RemoveDiscount(ctx context.Context, userID string) (_ *domcart.Cart, err error) {
	ctx, call := s.in.Start(ctx, useCaseRemoveDiscount, "RemoveDiscount", attribute.String("user.id", userID))
	defer call.End(&err)

	if err := requireUser(userID); err != nil {
		return nil, call.Fail("USER_ID_REQUIRED", err)
	}
	c, err := s.mutate(ctx, userID, func(c *domcart.Cart) error {
		return c.SetDiscount(decimal.Zero)
	})
	if err != nil {
		return nil, call.Fail(statusFor(err), err)
	}
	return c, nil
}

// mutate loads (or lazily creates) the cart, applies fn, recalculates the
// totals and saves. Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, userID string, fn func(*domcart.Cart) error) (*domcart.Cart, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) load(ctx context.Context, userID string) (*domcart.Cart, error) {
	c, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domcart.ErrNotFound) {
		return domcart.New(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: get: %w", err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *domcart.Cart) error {
	c.Recalculate(s.pricing)
	if err := s.repo.Save(ctx, c); err != nil {
		return fmt.Errorf("cart: save: %w", err)
	}
	s.cache.Evict(ctx, application.ScopeCart, c.UserID)
	return nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return application.Validation("user id is required")
	}
	return nil
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, application.ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, domcart.ErrItemNotFound):
		return "ITEM_NOT_FOUND"
	case errors.Is(err, dominv.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, dominv.ErrUnavailable):
		return "PRODUCT_UNAVAILABLE"
	case errors.Is(err, dominv.ErrNotFound):
		return "PRODUCT_NOT_FOUND"
	default:
		return "REPO_FAILED"
	}
}
