package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService = "inventory-service"

	useCaseDebit          = "inventory.debit"
	useCaseCredit         = "inventory.credit"
	useCaseCheckAvailable = "inventory.check_available"
	useCaseCreateProduct  = "inventory.create_product"
	useCaseGetProduct     = "inventory.get_product"
	useCaseProduct        = "inventory.product"
	useCaseRestock        = "inventory.restock"
	useCaseSetActive      = "inventory.set_active"
	useCaseUpdatePrice    = "inventory.update_price"
)

// Reader is the read path for product lookups that may be served from cache.
type Reader interface {
	Get(ctx context.Context, id string) (*dominv.Product, error)
}

// Ledger owns every stock mutation. Debits go straight to the store's atomic
// conditional decrement; reads used for decisions never come from cache.
type Ledger struct {
	repo    dominv.Repository
	reads   Reader
	cache   application.Cache
	ids     application.IDGenerator
	in      *application.Instruments
	rejects observability.Counter // stock_debit_rejections_total{reason}
}

type Option func(*Ledger)

// WithReader serves GetProduct through r, typically a cache decorator.
func WithReader(r Reader) Option {
	return func(l *Ledger) {
		if r != nil {
			l.reads = r
		}
	}
}

func WithCache(c application.Cache) Option {
	return func(l *Ledger) {
		if c != nil {
			l.cache = c
		}
	}
}

func NewLedger(repo dominv.Repository, ids application.IDGenerator, tel observability.Observability, opts ...Option) *Ledger {
	in := application.NewInstruments(tel, inventoryService)
	l := &Ledger{
		repo:    repo,
		reads:   repo,
		cache:   application.NopCache{},
		ids:     ids,
		in:      in,
		rejects: in.Counter(observability.MStockDebitRejections),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Debit atomically removes quantity from the product's stock. A rejection is
// classified as not found or *dominv.StockError, the latter flagged Inactive
// when the product is soft-deleted.
func (l *Ledger) Debit(ctx context.Context, productID string, quantity int) (_ int, err error) {
	ctx, call := l.in.Start(ctx, useCaseDebit, "Debit",
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	)
	defer call.End(&err)

	if err := validate(productID, quantity); err != nil {
		return 0, call.Fail("VALIDATION_FAILED", err)
	}

	remaining, err := l.repo.Debit(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, dominv.ErrInsufficientStock) || errors.Is(err, dominv.ErrNotFound) {
			cerr := l.classify(ctx, productID, quantity)
			l.rejects.Add(1, observability.L("reason", rejectReason(cerr)))
			return 0, call.Fail("DEBIT_REJECTED", cerr)
		}
		return 0, call.Fail("REPO_DEBIT_FAILED", fmt.Errorf("inventory: debit: %w", err))
	}

	l.cache.Evict(ctx, application.ScopeProduct, productID)
	call.Field("remaining", remaining)
	return remaining, nil
}

// Credit atomically adds quantity back. Inactive products are credited too.
func (l *Ledger) Credit(ctx context.Context, productID string, quantity int) (_ int, err error) {
	ctx, call := l.in.Start(ctx, useCaseCredit, "Credit",
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	)
	defer call.End(&err)

	if err := validate(productID, quantity); err != nil {
		return 0, call.Fail("VALIDATION_FAILED", err)
	}

	remaining, err := l.repo.Credit(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, dominv.ErrNotFound) {
			return 0, call.Fail("PRODUCT_NOT_FOUND", err)
		}
		return 0, call.Fail("REPO_CREDIT_FAILED", fmt.Errorf("inventory: credit: %w", err))
	}

	l.cache.Evict(ctx, application.ScopeProduct, productID)
	call.Field("remaining", remaining)
	return remaining, nil
}

// CheckAvailable is advisory: it reserves nothing, so Debit can still fail.
func (l *Ledger) CheckAvailable(ctx context.Context, productID string, quantity int) (err error) {
	ctx, call := l.in.Start(ctx, useCaseCheckAvailable, "CheckAvailable",
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	)
	defer call.End(&err)

	if err := validate(productID, quantity); err != nil {
		return call.Fail("VALIDATION_FAILED", err)
	}
	p, err := l.repo.Get(ctx, productID)
	if err != nil {
		return call.Fail("PRODUCT_LOAD_FAILED", err)
	}
	if err := p.CanSupply(quantity); err != nil {
		return call.Fail("UNAVAILABLE", err)
	}
	return nil
}

func (l *Ledger) classify(ctx context.Context, productID string, quantity int) error {
	p, err := l.repo.Get(ctx, productID)
	if err != nil {
		return err
	}
	if err := p.CanSupply(quantity); err != nil {
		return err
	}
	// stock came back between the rejected debit and this read
	return &dominv.StockError{ProductID: productID, Requested: quantity, Available: p.Stock}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		return "not_found"
	case errors.Is(err, dominv.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, dominv.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "unknown"
	}
}

type CreateProductInput struct {
	ID            string
	Name          string
	ImageURL      string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Stock         int
}

func (l *Ledger) CreateProduct(ctx context.Context, in CreateProductInput) (_ *dominv.Product, err error) {
	ctx, call := l.in.Start(ctx, useCaseCreateProduct, "CreateProduct")
	defer call.End(&err)

	if strings.TrimSpace(in.Name) == "" {
		return nil, call.Fail("NAME_REQUIRED", application.Validation("product name is required"))
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = l.ids.NewID()
	}

	p, err := dominv.NewProduct(id, in.Name, in.ImageURL, in.Price, in.DiscountPrice, in.Stock)
	if err != nil {
		return nil, call.Fail("DOMAIN_CONSTRUCTION_FAILED", fmt.Errorf("%w: %w", application.ErrValidation, err))
	}
	if err := l.repo.Insert(ctx, p); err != nil {
		if errors.Is(err, dominv.ErrConflict) {
			return nil, call.Fail("PRODUCT_EXISTS", err)
		}
		return nil, call.Fail("REPO_INSERT_FAILED", fmt.Errorf("inventory: insert: %w", err))
	}
	call.Field("product_id", p.ID)
	return p, nil
}

func (l *Ledger) GetProduct(ctx context.Context, id string) (_ *dominv.Product, err error) {
	ctx, call := l.in.Start(ctx, useCaseGetProduct, "GetProduct", attribute.String("product.id", id))
	defer call.End(&err)

	if strings.TrimSpace(id) == "" {
		return nil, call.Fail("PRODUCT_ID_REQUIRED", application.Validation("product id is required"))
	}
	p, err := l.reads.Get(ctx, id)
	if err != nil {
		return nil, call.Fail("PRODUCT_LOAD_FAILED", err)
	}
	return p, nil
}

// Product reads straight from the store, bypassing any cached reader. Use it
// when the caller acts on live stock, price or active state.
func (l *Ledger) Product(ctx context.Context, id string) (_ *dominv.Product, err error) {
	ctx, call := l.in.Start(ctx, useCaseProduct, "Product", attribute.String("product.id", id))
	defer call.End(&err)

	if strings.TrimSpace(id) == "" {
		return nil, call.Fail("PRODUCT_ID_REQUIRED", application.Validation("product id is required"))
	}
	p, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, call.Fail("PRODUCT_LOAD_FAILED", err)
	}
	return p, nil
}

// Restock is the administrative form of Credit.
func (l *Ledger) Restock(ctx context.Context, id string, quantity int) (_ int, err error) {
	ctx, call := l.in.Start(ctx, useCaseRestock, "Restock", attribute.String("product.id", id))
	defer call.End(&err)

	remaining, err := l.Credit(ctx, id, quantity)
	if err != nil {
		return 0, call.Fail("CREDIT_FAILED", err)
	}
	return remaining, nil
}

// SetActive soft-deletes (false) or restores (true) a product.
func (l *Ledger) SetActive(ctx context.Context, id string, active bool) (_ *dominv.Product, err error) {
	ctx, call := l.in.Start(ctx, useCaseSetActive, "SetActive",
		attribute.String("product.id", id),
		attribute.Bool("active", active),
	)
	defer call.End(&err)

	return l.updateCatalog(ctx, call, id, func(p *dominv.Product) error {
		p.SetActive(active)
		return nil
	})
}

func (l *Ledger) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, discount *decimal.Decimal) (_ *dominv.Product, err error) {
	ctx, call := l.in.Start(ctx, useCaseUpdatePrice, "UpdatePrice", attribute.String("product.id", id))
	defer call.End(&err)

	return l.updateCatalog(ctx, call, id, func(p *dominv.Product) error {
		if err := p.SetPrice(price, discount); err != nil {
			return fmt.Errorf("%w: %w", application.ErrValidation, err)
		}
		return nil
	})
}

func (l *Ledger) updateCatalog(ctx context.Context, call *application.Call, id string, mutate func(*dominv.Product) error) (*dominv.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, call.Fail("PRODUCT_ID_REQUIRED", application.Validation("product id is required"))
	}
	p, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, call.Fail("PRODUCT_LOAD_FAILED", err)
	}
	if err := mutate(p); err != nil {
		return nil, call.Fail("DOMAIN_UPDATE_FAILED", err)
	}
	if err := l.repo.Update(ctx, p); err != nil {
		return nil, call.Fail("REPO_UPDATE_FAILED", fmt.Errorf("inventory: update: %w", err))
	}
	l.cache.Evict(ctx, application.ScopeProduct, id)
	return p, nil
}

func validate(productID string, quantity int) error {
	if strings.TrimSpace(productID) == "" {
		return application.Validation("product id is required")
	}
	if quantity <= 0 {
		return application.Validation("quantity must be greater than zero")
	}
	return nil
}
