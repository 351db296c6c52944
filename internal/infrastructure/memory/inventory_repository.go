package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
)

// InventoryRepository keeps products in a map. A single mutex makes Debit a
// true conditional decrement, matching what the SQL store does in one UPDATE.
type InventoryRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *InventoryRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("inventory repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists {
		return domain.ErrConflict
	}
	r.products[p.ID] = p.Clone()
	return nil
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// Update replaces catalog fields and keeps the stored stock.
func (r *InventoryRepository) Update(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("inventory repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := p.Clone()
	next.Stock = stored.Stock
	next.Version = stored.Version + 1
	r.products[p.ID] = next
	p.Version = next.Version
	p.Stock = next.Stock
	return nil
}

func (r *InventoryRepository) Debit(ctx context.Context, id string, quantity int) (int, error) {
	_ = ctx
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if !p.Active || p.Stock < quantity {
		return 0, domain.ErrInsufficientStock
	}
	p.Stock -= quantity
	p.Version++
	return p.Stock, nil
}

func (r *InventoryRepository) Credit(ctx context.Context, id string, quantity int) (int, error) {
	_ = ctx
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	p.Stock += quantity
	p.Version++
	return p.Stock, nil
}
