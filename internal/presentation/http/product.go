package httppresentation

import (
	"net/http"

	appinv "github.com/adityaanikam/ecommerce-site-sub000/internal/application/inventory"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	ID            string           `json:"id,omitempty"`
	Name          string           `json:"name"`
	ImageURL      string           `json:"image_url,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Stock         int              `json:"stock"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

type activeRequest struct {
	Active bool `json:"active"`
}

type priceRequest struct {
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
}

type stockResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := h.svc.Ledger.CreateProduct(r.Context(), appinv.CreateProductInput{
		ID:            req.ID,
		Name:          req.Name,
		ImageURL:      req.ImageURL,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductResponse(p))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Ledger.GetProduct(r.Context(), mux.Vars(r)["productID"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	id := mux.Vars(r)["productID"]
	stock, err := h.svc.Ledger.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{ProductID: id, Stock: stock})
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := h.svc.Ledger.SetActive(r.Context(), mux.Vars(r)["productID"], req.Active)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}

func (h *Handler) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := h.svc.Ledger.UpdatePrice(r.Context(), mux.Vars(r)["productID"], req.Price, req.DiscountPrice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}
