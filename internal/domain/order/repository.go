package order

import "context"

type Repository interface {
	// Insert fails with ErrConflict when the id or the order number is taken.
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// Update persists o when the stored version equals o.Version and bumps
	// o.Version on success. A stale version fails with ErrConflict.
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id string) error
}
