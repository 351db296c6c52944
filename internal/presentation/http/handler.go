package httppresentation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	appcart "github.com/adityaanikam/ecommerce-site-sub000/internal/application/cart"
	appinv "github.com/adityaanikam/ecommerce-site-sub000/internal/application/inventory"
	apporder "github.com/adityaanikam/ecommerce-site-sub000/internal/application/order"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability/logctx"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerUserID         = "X-User-ID"
	maxBodyBytes         = 1 << 20
)

// Services groups what the API calls into.
type Services struct {
	Carts    *appcart.Service
	Ledger   *appinv.Ledger
	Orders   *apporder.Service
	Checkout application.UseCase[apporder.CheckoutInput, *domorder.Order]
	Cancel   application.UseCase[apporder.CancelInput, *domorder.Order]
}

type Handler struct {
	svc     Services
	log     observability.Logger
	tel     observability.Observability
	metrics http.Handler
}

func NewHandler(svc Services, logger observability.Logger, tel observability.Observability, metrics http.Handler) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	if logger == nil {
		logger = tel.Logger()
	}
	return &Handler{
		svc:     svc,
		log:     logger.With(observability.F("component", componentHTTPHandler)),
		tel:     tel,
		metrics: metrics,
	}
}

func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.StrictSlash(true)

	h.handle(r, http.MethodGet, "/health", h.handleHealth)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics).Methods(http.MethodGet)
	}

	h.handle(r, http.MethodGet, "/cart", h.handleGetCart)
	h.handle(r, http.MethodDelete, "/cart", h.handleClearCart)
	h.handle(r, http.MethodPost, "/cart/items", h.handleAddItem)
	h.handle(r, http.MethodPut, "/cart/items/{productID}", h.handleUpdateItem)
	h.handle(r, http.MethodDelete, "/cart/items/{productID}", h.handleRemoveItem)
	h.handle(r, http.MethodPost, "/cart/validate", h.handleValidateCart)
	h.handle(r, http.MethodPost, "/cart/discount", h.handleApplyDiscount)
	h.handle(r, http.MethodDelete, "/cart/discount", h.handleRemoveDiscount)

	h.handle(r, http.MethodPost, "/checkout", h.handleCheckout)
	h.handle(r, http.MethodGet, "/orders", h.handleListOrders)
	h.handle(r, http.MethodGet, "/orders/{orderID}", h.handleGetOrder)
	h.handle(r, http.MethodPost, "/orders/{orderID}/status", h.handleUpdateStatus)
	h.handle(r, http.MethodPost, "/orders/{orderID}/payment-status", h.handlePaymentStatus)
	h.handle(r, http.MethodPost, "/orders/{orderID}/tracking", h.handleTracking)
	h.handle(r, http.MethodPost, "/orders/{orderID}/cancel", h.handleCancel)

	h.handle(r, http.MethodPost, "/products", h.handleCreateProduct)
	h.handle(r, http.MethodGet, "/products/{productID}", h.handleGetProduct)
	h.handle(r, http.MethodPost, "/products/{productID}/restock", h.handleRestock)
	h.handle(r, http.MethodPost, "/products/{productID}/active", h.handleSetActive)
	h.handle(r, http.MethodPut, "/products/{productID}/price", h.handleUpdatePrice)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: CodeNotFound, Message: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: CodeValidation, Message: "method not allowed"})
	})
	return r
}

// handle wires one route through Trace → request logger + metrics → access log → handler.
// The route template is stored on the context for low-cardinality labels.
func (h *Handler) handle(r *mux.Router, method, route string, fn http.HandlerFunc) {
	label := method + " " + route
	chain := h.withTrace(
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		}, h.tel)(
			h.withAccessLog(fn),
		),
	)
	r.Handle(route, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		chain.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), label)))
	})).Methods(method)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes, using
// the request-scoped logger injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace starts a server span, continuing a W3C trace from the headers.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("shop.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}

		ctx, span := tracer.Start(parentCtx, route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(headerUserID))
}

type routeKey struct{}

func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
