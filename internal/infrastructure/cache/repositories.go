package cache

import (
	"context"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	domcart "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
)

// ProductRepository serves Get from the cache and evicts on every write.
type ProductRepository struct {
	dominv.Repository
	store *Store
}

func NewProductRepository(next dominv.Repository, store *Store) *ProductRepository {
	return &ProductRepository{Repository: next, store: store}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*dominv.Product, error) {
	return readThrough(ctx, r.store, application.ScopeProduct, id, (*dominv.Product).Clone, func() (*dominv.Product, error) {
		return r.Repository.Get(ctx, id)
	})
}

func (r *ProductRepository) Update(ctx context.Context, p *dominv.Product) error {
	defer r.store.Evict(ctx, application.ScopeProduct, p.ID)
	return r.Repository.Update(ctx, p)
}

func (r *ProductRepository) Debit(ctx context.Context, id string, quantity int) (int, error) {
	defer r.store.Evict(ctx, application.ScopeProduct, id)
	return r.Repository.Debit(ctx, id, quantity)
}

func (r *ProductRepository) Credit(ctx context.Context, id string, quantity int) (int, error) {
	defer r.store.Evict(ctx, application.ScopeProduct, id)
	return r.Repository.Credit(ctx, id, quantity)
}

type CartRepository struct {
	domcart.Repository
	store *Store
}

func NewCartRepository(next domcart.Repository, store *Store) *CartRepository {
	return &CartRepository{Repository: next, store: store}
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	return readThrough(ctx, r.store, application.ScopeCart, userID, (*domcart.Cart).Clone, func() (*domcart.Cart, error) {
		return r.Repository.Get(ctx, userID)
	})
}

func (r *CartRepository) Save(ctx context.Context, c *domcart.Cart) error {
	defer r.store.Evict(ctx, application.ScopeCart, c.UserID)
	return r.Repository.Save(ctx, c)
}

// OrderRepository caches lookups by id and per-user listings.
type OrderRepository struct {
	domorder.Repository
	store *Store
}

func NewOrderRepository(next domorder.Repository, store *Store) *OrderRepository {
	return &OrderRepository{Repository: next, store: store}
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domorder.Order, error) {
	return readThrough(ctx, r.store, application.ScopeOrder, id, (*domorder.Order).Clone, func() (*domorder.Order, error) {
		return r.Repository.Get(ctx, id)
	})
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domorder.Order, error) {
	return readThrough(ctx, r.store, application.ScopeOrdersByUser, userID, cloneOrders, func() ([]*domorder.Order, error) {
		return r.Repository.ListByUser(ctx, userID)
	})
}

func (r *OrderRepository) Insert(ctx context.Context, o *domorder.Order) error {
	defer r.evict(ctx, o)
	return r.Repository.Insert(ctx, o)
}

func (r *OrderRepository) Update(ctx context.Context, o *domorder.Order) error {
	defer r.evict(ctx, o)
	return r.Repository.Update(ctx, o)
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if o, err := r.Repository.Get(ctx, id); err == nil {
		defer r.evict(ctx, o)
	}
	r.store.Evict(ctx, application.ScopeOrder, id)
	return r.Repository.Delete(ctx, id)
}

func (r *OrderRepository) evict(ctx context.Context, o *domorder.Order) {
	r.store.Evict(ctx, application.ScopeOrder, o.ID)
	r.store.Evict(ctx, application.ScopeOrdersByUser, o.UserID)
}

func cloneOrders(in []*domorder.Order) []*domorder.Order {
	out := make([]*domorder.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
