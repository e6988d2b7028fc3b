package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
)

// ErrInvalidCard wraps every new-card format rejection; the message names the
// missing field.
var ErrInvalidCard = fmt.Errorf("invalid card details")

// brandPrefixes maps leading digits to a card brand. Literal table policy:
// no network, no checksum, first match wins.
var brandPrefixes = []struct {
	prefix string
	brand  string
}{
	{"4", "visa"},
	{"5", "mastercard"},
	{"2", "mastercard"},
	{"3", "amex"},
}

// CardBrand detects the brand from the leading digits of a card number.
func CardBrand(cardNumber string) string {
	number := strings.ReplaceAll(cardNumber, " ", "")
	for _, p := range brandPrefixes {
		if strings.HasPrefix(number, p.prefix) {
			return p.brand
		}
	}
	return "unknown"
}

// normalizeCard validates a freshly entered card and converts it to a
// display-safe payment method plus the CVV, which the caller holds only for
// the immediate submission call and never persists.
func normalizeCard(card domain.CardDetails) (domain.PaymentMethod, string, error) {
	number := strings.ReplaceAll(card.CardNumber, " ", "")
	switch {
	case number == "":
		return domain.PaymentMethod{}, "", fmt.Errorf("%w: card number is required", ErrInvalidCard)
	case card.ExpiryMonth == "":
		return domain.PaymentMethod{}, "", fmt.Errorf("%w: expiry month is required", ErrInvalidCard)
	case card.ExpiryYear == "":
		return domain.PaymentMethod{}, "", fmt.Errorf("%w: expiry year is required", ErrInvalidCard)
	case card.CVV == "":
		return domain.PaymentMethod{}, "", fmt.Errorf("%w: cvv is required", ErrInvalidCard)
	case card.CardholderName == "":
		return domain.PaymentMethod{}, "", fmt.Errorf("%w: cardholder name is required", ErrInvalidCard)
	}

	last4 := number
	if len(number) > 4 {
		last4 = number[len(number)-4:]
	}

	method := domain.PaymentMethod{
		ID:             fmt.Sprintf("card_%d", time.Now().UnixNano()),
		Type:           domain.PaymentTypeCard,
		Brand:          CardBrand(number),
		Last4:          last4,
		CardholderName: card.CardholderName,
		ExpiryMonth:    card.ExpiryMonth,
		ExpiryYear:     card.ExpiryYear,
	}
	return method, card.CVV, nil
}
