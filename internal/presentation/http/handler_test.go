package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appcart "github.com/adityaanikam/ecommerce-site-sub000/internal/application/cart"
	appinv "github.com/adityaanikam/ecommerce-site-sub000/internal/application/inventory"
	apporder "github.com/adityaanikam/ecommerce-site-sub000/internal/application/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/id"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/memory"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t      *testing.T
	router http.Handler
	ledger *appinv.Ledger
}

func newAPI(t *testing.T) *api {
	t.Helper()
	tel := observability.Nop()
	ledger := appinv.NewLedger(memory.NewInventoryRepository(), id.UUIDGenerator{}, tel)
	carts := appcart.NewService(memory.NewCartRepository(), ledger, tel)
	orders := memory.NewOrderRepository()
	cancel := apporder.NewCancelOrderUseCase(orders, ledger, nil, nil, tel)
	h := NewHandler(Services{
		Carts:    carts,
		Ledger:   ledger,
		Orders:   apporder.NewService(orders, cancel, nil, tel),
		Checkout: apporder.NewCheckoutUseCase(orders, carts, ledger, id.UUIDGenerator{}, id.OrderNumberGenerator{}, nil, nil, tel),
		Cancel:   cancel,
	}, nil, tel, nil)
	return &api{t: t, router: h.Router(), ledger: ledger}
}

func (a *api) product(id, price string, stock int) {
	a.t.Helper()
	_, err := a.ledger.CreateProduct(context.Background(), appinv.CreateProductInput{
		ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Stock: stock,
	})
	require.NoError(a.t, err)
}

func (a *api) do(method, path, user string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(headerUserID, user)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func checkoutBody() map[string]any {
	return map[string]any{
		"shipping_address": map[string]string{
			"full_name":   "Ada Lovelace",
			"line1":       "12 Analytical Row",
			"city":        "London",
			"postal_code": "N1 9GU",
			"country":     "GB",
		},
		"payment_method": "CARD",
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestCartFlow(t *testing.T) {
	a := newAPI(t)
	a.product("p1", "20.00", 5)

	rec := a.do(http.MethodPost, "/cart/items", "u1", map[string]any{"product_id": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decode[cartResponse](t, rec)
	assert.Equal(t, "40.00", cart.Subtotal)
	assert.Equal(t, "4.00", cart.Tax)
	assert.Equal(t, "10.00", cart.Shipping)
	assert.Equal(t, "54.00", cart.Total)

	rec = a.do(http.MethodPut, "/cart/items/p1", "u1", map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60.00", decode[cartResponse](t, rec).Subtotal)

	rec = a.do(http.MethodPost, "/cart/discount", "u1", map[string]any{"amount": "6"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60.00", decode[cartResponse](t, rec).Total)

	rec = a.do(http.MethodPost, "/cart/validate", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	validated := decode[cartResponse](t, rec)
	require.NotNil(t, validated.Modified)
	assert.False(t, *validated.Modified)

	rec = a.do(http.MethodDelete, "/cart/items/p1", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResponse](t, rec).Items)

	rec = a.do(http.MethodDelete, "/cart", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.00", decode[cartResponse](t, rec).Discount)
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)
	a.product("p1", "10.00", 5)
	a.do(http.MethodPost, "/cart/items", "u1", map[string]any{"product_id": "p1", "quantity": 3})

	cases := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		status int
		code   string
	}{
		{"missing user", http.MethodGet, "/cart", "", nil, http.StatusBadRequest, CodeValidation},
		{"merged quantity over stock", http.MethodPost, "/cart/items", "u1",
			map[string]any{"product_id": "p1", "quantity": 3}, http.StatusConflict, CodeInsufficientStock},
		{"unknown product", http.MethodPost, "/cart/items", "u1",
			map[string]any{"product_id": "nope", "quantity": 1}, http.StatusNotFound, CodeNotFound},
		{"zero quantity", http.MethodPost, "/cart/items", "u1",
			map[string]any{"product_id": "p1", "quantity": 0}, http.StatusBadRequest, CodeValidation},
		{"unknown field", http.MethodPost, "/cart/items", "u1",
			map[string]any{"product": "p1"}, http.StatusBadRequest, CodeValidation},
		{"empty cart checkout", http.MethodPost, "/checkout", "u2", checkoutBody(), http.StatusBadRequest, CodeEmptyCart},
		{"unknown order", http.MethodGet, "/orders/nope", "u1", nil, http.StatusNotFound, CodeNotFound},
		{"unknown route", http.MethodGet, "/nowhere", "", nil, http.StatusNotFound, CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := a.do(tc.method, tc.path, tc.user, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			body := decode[errorResponse](t, rec)
			assert.Equal(t, tc.code, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestInactiveProductIsUnavailable(t *testing.T) {
	a := newAPI(t)
	a.product("p1", "10.00", 5)

	rec := a.do(http.MethodPost, "/products/p1/active", "", map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[productResponse](t, rec).Active)

	rec = a.do(http.MethodPost, "/cart/items", "u1", map[string]any{"product_id": "p1", "quantity": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeProductUnavailable, decode[errorResponse](t, rec).Error)
}

func TestCheckoutWithDeactivatedLineIsInsufficientStock(t *testing.T) {
	a := newAPI(t)
	a.product("A", "10.00", 5)
	a.do(http.MethodPost, "/cart/items", "u1", map[string]any{"product_id": "A", "quantity": 2})
	a.do(http.MethodPost, "/products/A/active", "", map[string]any{"active": false})

	rec := a.do(http.MethodPost, "/checkout", "u1", checkoutBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeInsufficientStock, decode[errorResponse](t, rec).Error)
}

func TestCheckoutAndOrderLifecycle(t *testing.T) {
	a := newAPI(t)
	a.product("A", "10.00", 5)
	a.product("B", "20.00", 3)
	a.do(http.MethodPost, "/cart/items", "u1", map[string]any{"product_id": "A", "quantity": 2})
	a.do(http.MethodPost, "/cart/items", "u1", map[string]any{"product_id": "B", "quantity": 1})

	rec := a.do(http.MethodPost, "/checkout", "u1", checkoutBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[orderResponse](t, rec)
	assert.Equal(t, "PENDING", order.Status)
	assert.Equal(t, "54.00", order.TotalAmount)

	rec = a.do(http.MethodGet, "/orders", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderResponse](t, rec), 1)

	rec = a.do(http.MethodGet, "/orders/"+order.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPost, "/orders/"+order.ID+"/payment-status", "", map[string]any{"payment_status": "COMPLETED"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", decode[orderResponse](t, rec).Status)

	rec = a.do(http.MethodPost, "/orders/"+order.ID+"/status", "", map[string]any{"status": "SHIPPED"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeInvalidTransition, decode[errorResponse](t, rec).Error)

	rec = a.do(http.MethodPost, "/orders/"+order.ID+"/tracking", "", map[string]any{"tracking_number": "1Z", "carrier": "UPS"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeInvalidState, decode[errorResponse](t, rec).Error)

	rec = a.do(http.MethodPost, "/orders/"+order.ID+"/cancel", "u1", map[string]any{"reason": "changed my mind"})
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decode[orderResponse](t, rec)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)

	rec = a.do(http.MethodGet, "/products/A", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[productResponse](t, rec).Stock)
}

func TestProductAdmin(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/products", "", map[string]any{
		"id": "p9", "name": "Lamp", "price": "30.00", "discount_price": "25.00", "stock": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[productResponse](t, rec)
	assert.Equal(t, "25.00", p.EffectivePrice)

	rec = a.do(http.MethodPost, "/products/p9/restock", "", map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[stockResponse](t, rec).Stock)

	rec = a.do(http.MethodPut, "/products/p9/price", "", map[string]any{"price": "28.00"})
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[productResponse](t, rec)
	assert.Equal(t, "28.00", p.EffectivePrice)
	assert.Nil(t, p.DiscountPrice)

	rec = a.do(http.MethodPost, "/products", "", map[string]any{"id": "p9", "name": "Dup", "price": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeConflict, decode[errorResponse](t, rec).Error)

	rec = a.do(http.MethodPost, "/products", "", map[string]any{"name": "Neg", "price": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassify_InternalHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, CodeInternal, body.Error)
	assert.Equal(t, "internal error", body.Message)
}
