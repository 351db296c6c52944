package httppresentation

import (
	"net/http"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type discountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// caller returns the X-User-ID header or writes a validation error.
func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := userID(r)
	if uid == "" {
		writeDomainError(w, application.Validation("missing "+headerUserID+" header"))
		return "", false
	}
	return uid, true
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Carts.Get(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Carts.Clear(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	c, err := h.svc.Carts.AddItem(r.Context(), uid, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	c, err := h.svc.Carts.UpdateItemQuantity(r.Context(), uid, mux.Vars(r)["productID"], req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Carts.RemoveItem(r.Context(), uid, mux.Vars(r)["productID"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) handleValidateCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	c, modified, err := h.svc.Carts.Validate(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := newCartResponse(c)
	resp.Modified = &modified
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleApplyDiscount(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	var req discountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	c, err := h.svc.Carts.ApplyDiscount(r.Context(), uid, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) handleRemoveDiscount(w http.ResponseWriter, r *http.Request) {
	uid, ok := caller(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Carts.RemoveDiscount(r.Context(), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}
