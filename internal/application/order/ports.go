package order

import (
	"context"
	"time"

	domcart "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
)

// NumberGenerator issues human-facing order numbers. Uniqueness is enforced
// by the repository, not by the generator.
type NumberGenerator interface {
	NewNumber(now time.Time) string
}

// Inventory is the part of the ledger checkout and cancellation rely on.
type Inventory interface {
	CheckAvailable(ctx context.Context, productID string, quantity int) error
	Debit(ctx context.Context, productID string, quantity int) (int, error)
	Credit(ctx context.Context, productID string, quantity int) (int, error)
}

// CartStore is the part of the cart service checkout relies on.
type CartStore interface {
	Snapshot(ctx context.Context, userID string) (*domcart.Cart, error)
	Clear(ctx context.Context, userID string) (*domcart.Cart, error)
}

// Reader serves order queries, typically through a cache decorator.
type Reader interface {
	Get(ctx context.Context, id string) (*domorder.Order, error)
	GetByNumber(ctx context.Context, number string) (*domorder.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domorder.Order, error)
}
