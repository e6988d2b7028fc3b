// Package memory is a self-contained backend for local runs and tests: a
// seeded catalog, a single cart, saved instruments, and an order counter
// behind one RWMutex.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/pricing"
	"github.com/google/uuid"
)

const (
	taxRate          = 0.08
	standardShipping = 5.00
)

var servicedCountries = map[string]bool{
	"US": true,
	"CA": true,
	"MY": true,
	"SG": true,
}

type Backend struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	cart     *domain.Cart
	methods  []domain.PaymentMethod
	orderSeq int
}

func NewBackend() *Backend {
	b := &Backend{
		products: make(map[string]*domain.Product),
		cart:     &domain.Cart{ID: uuid.New().String()},
	}
	b.seed()
	return b
}

func (b *Backend) seed() {
	now := time.Now()
	for _, p := range []domain.Product{
		{
			ID: "pf001", Name: "Premium Dog Food",
			Description: "Nutritious dry dog food with real chicken and vegetables.",
			Price:       45.99, OriginalPrice: 55.99,
			Category: domain.Category{ID: "cat001", Name: "Pet Food"},
			InStock:  true, StockCount: 50,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "pf002", Name: "Organic Catnip Toy",
			Description: "Natural catnip-filled toy to keep your cat entertained.",
			Price:       9.99, OriginalPrice: 12.99,
			Category: domain.Category{ID: "cat002", Name: "Pet Toys"},
			InStock:  true, StockCount: 100,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "pf003", Name: "Cat Scratching Post",
			Description: "Sisal-wrapped post with a plush perch.",
			Price:       34.50,
			Category:    domain.Category{ID: "cat002", Name: "Pet Toys"},
			InStock:     true, StockCount: 25,
			CreatedAt: now, UpdatedAt: now,
		},
	} {
		p := p
		b.products[p.ID] = &p
	}

	b.methods = []domain.PaymentMethod{
		{
			ID: "pm_card123", Type: domain.PaymentTypeCard, IsDefault: true,
			Brand: "visa", Last4: "4242", CardholderName: "John Doe",
			ExpiryMonth: "12", ExpiryYear: "2027", CreatedAt: now,
		},
		{
			ID: "pm_card456", Type: domain.PaymentTypeCard,
			Brand: "mastercard", Last4: "1111", CardholderName: "John Doe",
			ExpiryMonth: "08", ExpiryYear: "2026", CreatedAt: now,
		},
		{
			ID: "pm_paypal789", Type: domain.PaymentTypePayPal,
			Email: "john@example.com", CreatedAt: now,
		},
	}
}

func (b *Backend) FetchCart(context.Context) (*domain.Cart, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked(), nil
}

func (b *Backend) AddItem(_ context.Context, productID string, quantity int) (*domain.Cart, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	product, ok := b.products[productID]
	if !ok {
		return nil, gateway.ErrProductNotFound
	}
	if !product.InStock {
		return nil, gateway.ErrStockConflict
	}

	if item := b.cart.ItemByProduct(productID); item != nil {
		if item.Quantity+quantity > product.StockCount {
			return nil, gateway.ErrStockConflict
		}
		item.Quantity += quantity
		return b.snapshotLocked(), nil
	}

	if quantity > product.StockCount {
		return nil, gateway.ErrStockConflict
	}
	b.cart.Items = append(b.cart.Items, domain.CartItem{
		ID:       uuid.New().String(),
		Product:  *product,
		Quantity: quantity,
		AddedAt:  time.Now(),
	})
	return b.snapshotLocked(), nil
}

func (b *Backend) SetQuantity(_ context.Context, itemID string, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	item := b.cart.Item(itemID)
	if item == nil {
		return gateway.ErrItemNotFound
	}
	if quantity < 1 || quantity > item.Product.StockCount {
		return gateway.ErrStockConflict
	}
	item.Quantity = quantity
	return nil
}

func (b *Backend) RemoveItem(_ context.Context, itemID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]domain.CartItem, 0, len(b.cart.Items))
	found := false
	for _, item := range b.cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return gateway.ErrItemNotFound
	}
	b.cart.Items = items
	return nil
}

func (b *Backend) ClearCart(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cart.Items = nil
	return nil
}

func (b *Backend) ValidateAddress(_ context.Context, addr domain.ShippingAddress) (*gateway.AddressValidation, error) {
	var errs []string
	if strings.TrimSpace(addr.Address) == "" {
		errs = append(errs, "street address is required")
	}
	if strings.TrimSpace(addr.City) == "" {
		errs = append(errs, "city is required")
	}
	if strings.TrimSpace(addr.ZipCode) == "" {
		errs = append(errs, "zip code is required")
	}
	if strings.TrimSpace(addr.Country) == "" {
		errs = append(errs, "country is required")
	}
	if len(errs) > 0 {
		return &gateway.AddressValidation{Valid: false, Errors: errs}, nil
	}

	normalized := addr
	normalized.Address = strings.TrimSpace(normalized.Address)
	normalized.Address = strings.ReplaceAll(normalized.Address, "Street", "St")
	normalized.State = strings.ToUpper(strings.TrimSpace(normalized.State))
	normalized.Country = strings.ToUpper(strings.TrimSpace(normalized.Country))
	return &gateway.AddressValidation{Valid: true, Normalized: &normalized}, nil
}

func (b *Backend) CalculateShipping(_ context.Context, addr domain.ShippingAddress) (*gateway.ShippingQuote, error) {
	if !servicedCountries[strings.ToUpper(addr.Country)] {
		return nil, gateway.ErrAddressNotServiceable
	}
	methods := []gateway.ShippingMethod{
		{ID: "standard", Name: "Standard Shipping", Cost: 15.99, EstimatedDays: 3},
		{ID: "express", Name: "Express Shipping", Cost: 29.99, EstimatedDays: 1},
		{ID: "overnight", Name: "Overnight Shipping", Cost: 49.99, EstimatedDays: 1},
	}
	return &gateway.ShippingQuote{
		Cost:          methods[0].Cost,
		Currency:      "USD",
		EstimatedDays: methods[0].EstimatedDays,
		Methods:       methods,
	}, nil
}

func (b *Backend) ListPaymentMethods(context.Context) ([]domain.PaymentMethod, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.PaymentMethod(nil), b.methods...), nil
}

func (b *Backend) SubmitOrder(_ context.Context, req *gateway.OrderRequest) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Stock may have moved since the cart snapshot was frozen.
	for _, item := range req.Items {
		product, ok := b.products[item.Product.ID]
		if !ok {
			return nil, gateway.ErrProductNotFound
		}
		if !product.InStock || item.Quantity > product.StockCount {
			return nil, gateway.ErrStockConflict
		}
	}

	for _, item := range req.Items {
		product := b.products[item.Product.ID]
		product.StockCount -= item.Quantity
		if product.StockCount == 0 {
			product.InStock = false
		}
	}

	b.orderSeq++
	now := time.Now()
	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{
			ID:          uuid.New().String(),
			ProductID:   item.Product.ID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Product.Price,
			TotalPrice:  item.Product.Price * float64(item.Quantity),
		}
		if len(item.Product.Images) > 0 {
			items[i].ProductImage = item.Product.Images[0]
		}
	}

	order := &domain.Order{
		ID:                "order_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		OrderNumber:       fmt.Sprintf("ORD-%d-%06d", now.Year(), b.orderSeq),
		Status:            domain.OrderStatusConfirmed,
		Items:             items,
		ShippingAddress:   req.ShippingAddress,
		Payment:           req.Payment,
		Pricing:           req.Pricing,
		Currency:          "USD",
		EstimatedDelivery: now.AddDate(0, 0, 3),
		TrackingNumber:    "TRK" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:9]),
		CreatedAt:         now,
	}
	return order, nil
}

// snapshotLocked derives the aggregate fields the same way the real backend
// would: tax from the rate, flat standard shipping while the cart is
// non-empty.
func (b *Backend) snapshotLocked() *domain.Cart {
	snap := b.cart.Clone()
	shipping := 0.0
	if len(snap.Items) > 0 {
		shipping = standardShipping
	}
	breakdown := pricing.Compute(snap.Items, pricing.TaxRate(taxRate), shipping)
	snap.Subtotal = breakdown.Subtotal
	snap.Tax = breakdown.Tax
	snap.Shipping = breakdown.Shipping
	snap.Total = breakdown.Total
	snap.TotalItems = pricing.TotalItems(snap.Items)
	snap.UpdatedAt = time.Now()
	return snap
}
