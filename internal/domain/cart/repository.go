package cart

import "context"

// Repository stores one cart per user.
type Repository interface {
	// Get returns ErrNotFound when the user has no cart yet.
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
}
