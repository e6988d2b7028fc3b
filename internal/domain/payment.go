package domain

import "time"

type PaymentMethodType string

const (
	PaymentTypeCard     PaymentMethodType = "card"
	PaymentTypePayPal   PaymentMethodType = "paypal"
	PaymentTypeApplePay PaymentMethodType = "apple_pay"
)

// IsWallet reports whether the type is a wallet instrument, which needs no
// card fields beyond the type itself.
func (t PaymentMethodType) IsWallet() bool {
	return t == PaymentTypePayPal || t == PaymentTypeApplePay
}

// PaymentMethod carries only display-safe fields. Raw card input lives in
// CardDetails until normalized; the CVV never lands here.
type PaymentMethod struct {
	ID             string            `json:"id"`
	Type           PaymentMethodType `json:"type"`
	IsDefault      bool              `json:"isDefault"`
	Brand          string            `json:"brand,omitempty"`
	Last4          string            `json:"last4,omitempty"`
	CardholderName string            `json:"cardholderName,omitempty"`
	ExpiryMonth    string            `json:"expiryMonth,omitempty"`
	ExpiryYear     string            `json:"expiryYear,omitempty"`
	Email          string            `json:"email,omitempty"`
	CreatedAt      time.Time         `json:"createdAt,omitempty"`
}

// CardDetails is the raw new-card form input. It holds the full number and
// CVV only until normalization; callers must not retain it afterwards.
type CardDetails struct {
	CardNumber     string `json:"cardNumber"`
	ExpiryMonth    string `json:"expiryMonth"`
	ExpiryYear     string `json:"expiryYear"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholderName"`
}
