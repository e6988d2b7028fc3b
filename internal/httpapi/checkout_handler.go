package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/checkout"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
)

type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
}

func NewCheckoutHandler(orchestrator *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator}
}

type CheckoutStateDTO struct {
	Step            string                  `json:"step"`
	ShippingAddress *domain.ShippingAddress `json:"shippingAddress,omitempty"`
	ShippingQuote   *gateway.ShippingQuote  `json:"shippingQuote,omitempty"`
	PaymentMethod   *domain.PaymentMethod   `json:"paymentMethod,omitempty"`
}

type SelectMethodRequestDTO struct {
	MethodID string `json:"methodId"`
}

type SelectWalletRequestDTO struct {
	Type  string `json:"type"`
	Email string `json:"email,omitempty"`
}

type PlaceOrderRequestDTO struct {
	AgreeToTerms bool `json:"agreeToTerms"`
}

func (h *CheckoutHandler) stateDTO() CheckoutStateDTO {
	state := h.orchestrator.State()
	return CheckoutStateDTO{
		Step:            state.Step.String(),
		ShippingAddress: state.ShippingAddress,
		ShippingQuote:   state.ShippingQuote,
		PaymentMethod:   state.PaymentMethod,
	}
}

func (h *CheckoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stateDTO())
}

func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	var addr domain.ShippingAddress
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.orchestrator.SubmitShippingAddress(r.Context(), addr); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.stateDTO())
}

func (h *CheckoutHandler) EnterCard(w http.ResponseWriter, r *http.Request) {
	var card domain.CardDetails
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.orchestrator.EnterCard(card); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.stateDTO())
}

func (h *CheckoutHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	var req SelectMethodRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.orchestrator.SelectSavedMethod(r.Context(), req.MethodID); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.stateDTO())
}

func (h *CheckoutHandler) SelectWallet(w http.ResponseWriter, r *http.Request) {
	var req SelectWalletRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	walletType := domain.PaymentMethodType(req.Type)
	if !walletType.IsWallet() {
		respondError(w, http.StatusBadRequest, "invalid_wallet_type", "type must be paypal or apple_pay")
		return
	}

	if err := h.orchestrator.SelectWallet(walletType, req.Email); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.stateDTO())
}

func (h *CheckoutHandler) SelectShippingMethod(w http.ResponseWriter, r *http.Request) {
	var req SelectMethodRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.orchestrator.SelectShippingMethod(req.MethodID); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.stateDTO())
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	if err := h.orchestrator.Back(); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.stateDTO())
}

func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.orchestrator.Summary()
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *CheckoutHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.orchestrator.PaymentMethods(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, methods)
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orchestrator.PlaceOrder(r.Context(), req.AgreeToTerms)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	log.Printf("order %s placed (request %s)", order.OrderNumber, getRequestID(r.Context()))
	respondJSON(w, http.StatusCreated, order)
}
