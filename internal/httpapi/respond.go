// Package httpapi exposes the commerce core over HTTP for UI clients. Routes
// mirror the storefront frontend contract: /api/cart, /api/checkout/*,
// /api/payment-methods, /api/orders.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/cart"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/checkout"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/orders"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError maps the core's sentinel errors to HTTP statuses. Anything
// unrecognized is a 502: the backend boundary failed in a way the client
// cannot act on.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrQuantityTooLow):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, cart.ErrExceedsStock),
		errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, gateway.ErrStockConflict):
		respondError(w, http.StatusConflict, "stock_conflict", err.Error())
	case errors.Is(err, cart.ErrNotLoaded):
		respondError(w, http.StatusConflict, "cart_not_loaded", err.Error())
	case errors.Is(err, gateway.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, gateway.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, gateway.ErrAddressUnresolvable):
		respondError(w, http.StatusUnprocessableEntity, "address_unresolvable", err.Error())
	case errors.Is(err, gateway.ErrAddressNotServiceable):
		respondError(w, http.StatusUnprocessableEntity, "address_not_serviceable", err.Error())
	case errors.Is(err, gateway.ErrPaymentDeclined):
		respondError(w, http.StatusPaymentRequired, "payment_declined", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, checkout.ErrSessionComplete):
		respondError(w, http.StatusConflict, "session_complete", err.Error())
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "submission_in_flight", err.Error())
	case errors.Is(err, checkout.ErrAddressInvalid):
		respondError(w, http.StatusUnprocessableEntity, "address_invalid", err.Error())
	case errors.Is(err, checkout.ErrInvalidCard):
		respondError(w, http.StatusBadRequest, "invalid_card", err.Error())
	case errors.Is(err, checkout.ErrTermsNotAccepted):
		respondError(w, http.StatusBadRequest, "terms_not_accepted", err.Error())
	case errors.Is(err, checkout.ErrPaymentMethodUnknown):
		respondError(w, http.StatusNotFound, "payment_method_unknown", err.Error())
	case errors.Is(err, checkout.ErrShippingMethodUnknown):
		respondError(w, http.StatusNotFound, "shipping_method_unknown", err.Error())
	case errors.Is(err, orders.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", err.Error())
	default:
		log.Printf("backend error: %v", err)
		respondError(w, http.StatusBadGateway, "backend_error", "upstream service failed")
	}
}
