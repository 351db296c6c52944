package httppresentation

import (
	"errors"
	"net/http"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	apporder "github.com/adityaanikam/ecommerce-site-sub000/internal/application/order"
	domcart "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
)

// Stable error codes returned in the "error" field.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeEmptyCart          = "EMPTY_CART"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInvalidState       = "INVALID_STATE"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL"
)

var errBadRequest = errors.New("invalid request body")

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps an error to its HTTP status and code. Stock errors are checked
// before not-found so a rolled-back checkout still reports the stock problem.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, application.ErrValidation),
		errors.Is(err, dominv.ErrInvalidQuantity),
		errors.Is(err, dominv.ErrInvalidStock),
		errors.Is(err, dominv.ErrInvalidPrice),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrInvalidAmount),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domcart.ErrInvalidDiscount),
		errors.Is(err, domorder.ErrTrackingRequired):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, apporder.ErrEmptyCart):
		return http.StatusBadRequest, CodeEmptyCart
	case errors.Is(err, dominv.ErrInsufficientStock):
		return http.StatusConflict, CodeInsufficientStock
	case errors.Is(err, dominv.ErrUnavailable):
		return http.StatusConflict, CodeProductUnavailable
	case errors.Is(err, domorder.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidTransition
	case errors.Is(err, domorder.ErrInvalidState):
		return http.StatusConflict, CodeInvalidState
	case errors.Is(err, domcart.ErrNotFound),
		errors.Is(err, domcart.ErrItemNotFound),
		errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dominv.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domorder.ErrConflict),
		errors.Is(err, dominv.ErrConflict):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}
