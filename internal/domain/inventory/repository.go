package inventory

import "context"

// Repository persists products. Debit and Credit are the only stock mutation
// points and must be atomic at the store level: Debit applies only when the
// product is active and stock >= quantity, and reports ErrInsufficientStock
// otherwise without touching the stored value.
type Repository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	// Update writes catalog fields (name, image, prices, active flag); stock is left untouched.
	Update(ctx context.Context, p *Product) error
	Debit(ctx context.Context, id string, quantity int) (remaining int, err error)
	Credit(ctx context.Context, id string, quantity int) (remaining int, err error)
}
