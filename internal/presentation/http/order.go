package httppresentation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	apporder "github.com/adityaanikam/ecommerce-site-sub000/internal/application/order"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"

	"github.com/gorilla/mux"
)

type checkoutRequest struct {
	ShippingAddress addressPayload `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	o, err := h.svc.Checkout.Execute(r.Context(), apporder.CheckoutInput{
		UserID:          uid,
		ShippingAddress: req.ShippingAddress.toDomain(),
		PaymentMethod:   payment.Method(req.PaymentMethod),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ListByUser(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownedOrder(r.Context(), r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	next, err := domorder.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, application.Validation(err.Error()))
		return
	}
	o, err := h.svc.Orders.UpdateStatus(r.Context(), mux.Vars(r)["orderID"], next)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req paymentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	status, err := payment.ParseStatus(req.PaymentStatus)
	if err != nil {
		writeDomainError(w, application.Validation(err.Error()))
		return
	}
	o, err := h.svc.Orders.SetPaymentStatus(r.Context(), mux.Vars(r)["orderID"], status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) handleTracking(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	o, err := h.svc.Orders.AddTrackingInfo(r.Context(), mux.Vars(r)["orderID"], req.TrackingNumber, req.Carrier)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	existing, err := h.ownedOrder(r.Context(), r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	o, err := h.svc.Cancel.Execute(r.Context(), apporder.CancelInput{OrderID: existing.ID, Reason: req.Reason})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(o))
}

// ownedOrder loads the order named in the path. When the caller identifies
// itself, another user's order is reported as not found.
func (h *Handler) ownedOrder(ctx context.Context, r *http.Request) (*domorder.Order, error) {
	id := mux.Vars(r)["orderID"]
	o, err := h.svc.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if uid := userID(r); uid != "" && uid != o.UserID {
		return nil, fmt.Errorf("%w: %s", domorder.ErrNotFound, id)
	}
	return o, nil
}
