package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domcart "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo *InventoryRepository, id string, stock int) {
	t.Helper()
	p, err := dominv.NewProduct(id, "Widget "+id, "", decimal.NewFromInt(10), nil, stock)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), p))
}

func TestInventoryRepository_ConcurrentDebitNeverOversells(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository()
	seedProduct(t, repo, "p1", 10)

	var ok, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Debit(ctx, "p1", 1); err != nil {
				assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
				atomic.AddInt64(&rejected, 1)
				return
			}
			atomic.AddInt64(&ok, 1)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, ok)
	assert.EqualValues(t, 40, rejected)
	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, p.Stock)
}

func TestInventoryRepository_DebitCredit(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository()
	seedProduct(t, repo, "p1", 5)

	left, err := repo.Debit(ctx, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, left)

	left, err = repo.Credit(ctx, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, left)

	_, err = repo.Debit(ctx, "missing", 1)
	assert.ErrorIs(t, err, dominv.ErrNotFound)
	_, err = repo.Debit(ctx, "p1", 0)
	assert.ErrorIs(t, err, dominv.ErrInvalidQuantity)
}

func TestInventoryRepository_InactiveRejectsDebit(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository()
	seedProduct(t, repo, "p1", 5)

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	p.SetActive(false)
	require.NoError(t, repo.Update(ctx, p))

	_, err = repo.Debit(ctx, "p1", 1)
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
}

func TestInventoryRepository_UpdateKeepsStock(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository()
	seedProduct(t, repo, "p1", 5)

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	p.Stock = 999
	p.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
	assert.Equal(t, "Renamed", got.Name)
}

func TestInventoryRepository_InsertConflict(t *testing.T) {
	repo := NewInventoryRepository()
	seedProduct(t, repo, "p1", 5)

	p, err := dominv.NewProduct("p1", "Again", "", decimal.NewFromInt(1), nil, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Insert(context.Background(), p), dominv.ErrConflict)
}

func newTestOrder(t *testing.T, id, number, userID string) *domorder.Order {
	t.Helper()
	it, err := domorder.NewItem("p1", "Widget", "", decimal.NewFromInt(10), 1)
	require.NoError(t, err)
	o, err := domorder.New(id, number, userID, []domorder.Item{it}, decimal.NewFromInt(21),
		domorder.ShippingAddress{FullName: "A"}, payment.MethodCard)
	require.NoError(t, err)
	return o
}

func TestOrderRepository_NumberIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "o1", "ORD-1", "u1")))

	err := repo.Insert(ctx, newTestOrder(t, "o2", "ORD-1", "u1"))
	assert.ErrorIs(t, err, domorder.ErrConflict)

	_, err = repo.Get(ctx, "o2")
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}

func TestOrderRepository_VersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "o1", "ORD-1", "u1")))

	a, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	b, err := repo.Get(ctx, "o1")
	require.NoError(t, err)

	require.NoError(t, a.Transition(domorder.StatusConfirmed))
	require.NoError(t, repo.Update(ctx, a))
	assert.Equal(t, 2, a.Version)

	require.NoError(t, b.Cancel("late"))
	assert.ErrorIs(t, repo.Update(ctx, b), domorder.ErrConflict)

	got, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusConfirmed, got.Status)
}

func TestOrderRepository_ListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	older := newTestOrder(t, "o1", "ORD-1", "u1")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newTestOrder(t, "o2", "ORD-2", "u1")
	other := newTestOrder(t, "o3", "ORD-3", "u2")
	for _, o := range []*domorder.Order{older, newer, other} {
		require.NoError(t, repo.Insert(ctx, o))
	}

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o2", list[0].ID)
	assert.Equal(t, "o1", list[1].ID)
}

func TestOrderRepository_DeleteFreesNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "o1", "ORD-1", "u1")))

	require.NoError(t, repo.Delete(ctx, "o1"))
	_, err := repo.GetByNumber(ctx, "ORD-1")
	assert.ErrorIs(t, err, domorder.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "o1"), domorder.ErrNotFound)
}

func TestCartRepository_ClonesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository()

	c := domcart.New("u1")
	require.NoError(t, c.Add(domcart.Item{ProductID: "p1", UnitPrice: decimal.NewFromInt(1), Quantity: 1}))
	require.NoError(t, repo.Save(ctx, c))
	c.Items[0].Quantity = 50

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuantityOf("p1"))

	_, err = repo.Get(ctx, "nobody")
	assert.ErrorIs(t, err, domcart.ErrNotFound)
}

func TestUserDirectory(t *testing.T) {
	dir := NewUserDirectory()
	dir.Put("u1", "u1@example.com")

	email, err := dir.EmailOf(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", email)

	email, err = dir.EmailOf(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, email)
}
