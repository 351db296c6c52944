package application

import "context"

// IDGenerator issues opaque unique identifiers.
type IDGenerator interface {
	NewID() string
}

// Cache scopes evicted by the services after a mutation.
const (
	ScopeCart         = "cart"
	ScopeOrder        = "order"
	ScopeOrdersByUser = "orders_by_user"
	ScopeProduct      = "product"
)

// Cache invalidation is best effort. Implementations must not block and the
// services behave correctly when it does nothing.
type Cache interface {
	Evict(ctx context.Context, scope, key string)
}

type NopCache struct{}

func (NopCache) Evict(context.Context, string, string) {}
