package order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appcart "github.com/adityaanikam/ecommerce-site-sub000/internal/application/cart"
	appinv "github.com/adityaanikam/ecommerce-site-sub000/internal/application/inventory"
	apporder "github.com/adityaanikam/ecommerce-site-sub000/internal/application/order"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	domoutbox "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/id"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/memory"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

// flakyProducts rejects debits for the products listed in failDebit and
// soft-deletes the products in deactivateOnDebit right before debiting them.
type flakyProducts struct {
	*memory.InventoryRepository
	failDebit         map[string]bool
	deactivateOnDebit map[string]bool
}

func (r *flakyProducts) Debit(ctx context.Context, productID string, quantity int) (int, error) {
	if r.failDebit[productID] {
		return 0, dominv.ErrInsufficientStock
	}
	if r.deactivateOnDebit[productID] {
		p, err := r.InventoryRepository.Get(ctx, productID)
		if err != nil {
			return 0, err
		}
		p.SetActive(false)
		if err := r.InventoryRepository.Update(ctx, p); err != nil {
			return 0, err
		}
	}
	return r.InventoryRepository.Debit(ctx, productID, quantity)
}

// sequenceNumbers hands out the given numbers in order, repeating the last.
type sequenceNumbers struct {
	mu      sync.Mutex
	numbers []string
	calls   int
}

func (s *sequenceNumbers) NewNumber(time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.numbers[min(s.calls, len(s.numbers)-1)]
	s.calls++
	return n
}

type fixture struct {
	products  *flakyProducts
	orders    *memory.OrderRepository
	ledger    *appinv.Ledger
	carts     *appcart.Service
	publisher *recordingPublisher
	checkout  *apporder.CheckoutUseCase
	cancel    *apporder.CancelOrderUseCase
	service   *apporder.Service
}

func newFixture(t *testing.T, numbers apporder.NumberGenerator) *fixture {
	t.Helper()
	if numbers == nil {
		numbers = id.OrderNumberGenerator{}
	}
	tel := observability.Nop()
	f := &fixture{
		products:  &flakyProducts{InventoryRepository: memory.NewInventoryRepository(), failDebit: map[string]bool{}, deactivateOnDebit: map[string]bool{}},
		orders:    memory.NewOrderRepository(),
		publisher: &recordingPublisher{},
	}
	f.ledger = appinv.NewLedger(f.products, id.UUIDGenerator{}, tel)
	f.carts = appcart.NewService(memory.NewCartRepository(), f.ledger, tel)
	f.checkout = apporder.NewCheckoutUseCase(f.orders, f.carts, f.ledger, id.UUIDGenerator{}, numbers, f.publisher, nil, tel)
	f.cancel = apporder.NewCancelOrderUseCase(f.orders, f.ledger, f.publisher, nil, tel)
	f.service = apporder.NewService(f.orders, f.cancel, f.publisher, tel)
	return f
}

func (f *fixture) product(t *testing.T, id, price string, stock int) {
	t.Helper()
	_, err := f.ledger.CreateProduct(context.Background(), appinv.CreateProductInput{
		ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Stock: stock,
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) add(t *testing.T, userID, productID string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), userID, productID, qty)
	require.NoError(t, err)
}

func validInput(userID string) apporder.CheckoutInput {
	return apporder.CheckoutInput{
		UserID: userID,
		ShippingAddress: domorder.ShippingAddress{
			FullName:   "Ada Lovelace",
			Line1:      "12 Analytical Row",
			City:       "London",
			PostalCode: "N1 9GU",
			Country:    "GB",
		},
		PaymentMethod: payment.MethodCard,
	}
}

// placeOrder checks out a cart holding 2 of A and 1 of B.
func (f *fixture) placeOrder(t *testing.T, userID string) *domorder.Order {
	t.Helper()
	f.add(t, userID, "A", 2)
	f.add(t, userID, "B", 1)
	o, err := f.checkout.Execute(context.Background(), validInput(userID))
	require.NoError(t, err)
	return o
}
