// Package pricing derives cart and order totals from line items. It is pure:
// every mutation that changes items or shipping cost recomputes through here
// instead of patching aggregate fields in place.
package pricing

import (
	"math"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
)

// Breakdown is the result of a totals computation.
type Breakdown struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Total    float64
}

// Tax is either a fixed amount (already computed server side) or a rate
// applied to the subtotal.
type Tax struct {
	amount float64
	rate   float64
	isRate bool
}

func TaxAmount(amount float64) Tax {
	return Tax{amount: amount}
}

func TaxRate(rate float64) Tax {
	return Tax{rate: rate, isRate: true}
}

// Compute produces the canonical breakdown: subtotal, then the quoted
// shipping cost, then tax, then total. Line values are summed unrounded and
// each reported field is rounded to cents exactly once, so per-line rounding
// error cannot accumulate.
func Compute(items []domain.CartItem, tax Tax, shipping float64) Breakdown {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Product.Price * float64(item.Quantity)
	}

	taxAmount := tax.amount
	if tax.isRate {
		taxAmount = subtotal * tax.rate
	}

	return Breakdown{
		Subtotal: round2(subtotal),
		Tax:      round2(taxAmount),
		Shipping: round2(shipping),
		Total:    round2(subtotal + shipping + taxAmount),
	}
}

// TotalItems sums quantities across all lines, matching the cart badge.
func TotalItems(items []domain.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
