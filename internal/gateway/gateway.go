// Package gateway defines the narrow boundary the commerce core depends on.
// Implementations live in subpackages; the core only sees these interfaces
// and the sentinel errors below.
package gateway

import (
	"context"
	"errors"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
)

var (
	ErrStockConflict         = errors.New("requested quantity exceeds available stock")
	ErrItemNotFound          = errors.New("cart item not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrAddressUnresolvable   = errors.New("shipping address could not be resolved")
	ErrAddressNotServiceable = errors.New("no shipping available for this address")
	ErrPaymentDeclined       = errors.New("payment was declined")
)

// AddressValidation is the outcome of a validateAddress call. When the
// service returns a normalized form, the orchestrator substitutes it for the
// submitted address.
type AddressValidation struct {
	Valid      bool                    `json:"valid"`
	Normalized *domain.ShippingAddress `json:"normalizedAddress,omitempty"`
	Errors     []string                `json:"errors,omitempty"`
}

type ShippingMethod struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Cost          float64 `json:"cost"`
	EstimatedDays int     `json:"estimatedDays"`
}

// ShippingQuote prices shipping for a validated address. Cost is the default
// method's cost and becomes authoritative for the order total once accepted.
type ShippingQuote struct {
	Cost          float64          `json:"cost"`
	Currency      string           `json:"currency"`
	EstimatedDays int              `json:"estimatedDays"`
	Methods       []ShippingMethod `json:"shippingMethods,omitempty"`
}

// OrderRequest freezes everything the order needs at submission time. CardCVV
// is set only for new-card payments and only for the duration of this call.
type OrderRequest struct {
	Items           []domain.CartItem      `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Payment         domain.PaymentMethod   `json:"paymentMethod"`
	CardCVV         string                 `json:"cvv,omitempty"`
	Pricing         domain.OrderSummary    `json:"orderSummary"`
}

// CartBackend is the request/response service holding the server-side cart.
type CartBackend interface {
	FetchCart(ctx context.Context) (*domain.Cart, error)
	// AddItem appends server side and returns the resulting cart; the client
	// has no product data before this call, so there is no optimistic path.
	AddItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error)
	SetQuantity(ctx context.Context, itemID string, quantity int) error
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

type ShippingService interface {
	ValidateAddress(ctx context.Context, addr domain.ShippingAddress) (*AddressValidation, error)
	CalculateShipping(ctx context.Context, addr domain.ShippingAddress) (*ShippingQuote, error)
}

type PaymentMethodSource interface {
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
}

type OrderService interface {
	SubmitOrder(ctx context.Context, req *OrderRequest) (*domain.Order, error)
}
