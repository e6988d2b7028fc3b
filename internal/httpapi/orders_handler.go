package httpapi

import (
	"context"
	"net/http"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/go-chi/chi/v5"
)

// OrderHistory is the read side of the orders repository.
type OrderHistory interface {
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

type OrdersHandler struct {
	history OrderHistory
}

func NewOrdersHandler(history OrderHistory) *OrdersHandler {
	return &OrdersHandler{history: history}
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.history.ListOrders(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if list == nil {
		list = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.history.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
