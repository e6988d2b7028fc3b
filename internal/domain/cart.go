package domain

import "time"

type CartItem struct {
	ID       string    `json:"id"`
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// Unavailable reports whether the item's product went out of stock after it
// was added. Such items stay in the cart flagged, they are never auto-removed.
func (i CartItem) Unavailable() bool {
	return !i.Product.InStock
}

// Cart is the authoritative snapshot held by the cart store. The aggregate
// fields are always derived from Items through the pricing package; nothing
// sets them independently of a recompute.
type Cart struct {
	ID         string     `json:"id"`
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	Subtotal   float64    `json:"subtotal"`
	Tax        float64    `json:"tax"`
	Shipping   float64    `json:"shipping"`
	Total      float64    `json:"total"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Item returns the cart item with the given ID, or nil.
func (c *Cart) Item(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemByProduct returns the cart item holding the given product, or nil.
func (c *Cart) ItemByProduct(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Rollback snapshots and reads handed out to
// callers must never alias the store's internal slice.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	for i := range out.Items {
		if imgs := out.Items[i].Product.Images; imgs != nil {
			out.Items[i].Product.Images = append([]string(nil), imgs...)
		}
	}
	return &out
}
