package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/cart"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	store *cart.Store
}

func NewCartHandler(store *cart.Store) *CartHandler {
	return &CartHandler{store: store}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Load(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.store.AddItem(r.Context(), req.ProductID, req.Quantity); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.store.Cart())
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.store.UpdateQuantity(r.Context(), itemID, req.Quantity); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.store.Cart())
}

func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	if err := h.store.IncreaseQuantity(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.store.Cart())
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DecreaseQuantity(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.store.Cart())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.store.Cart())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.store.Cart())
}
