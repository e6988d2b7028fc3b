package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderSummary is a pricing breakdown frozen at submission time.
type OrderSummary struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount,omitempty"`
	Total    float64 `json:"total"`
}

type OrderItem struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	ProductImage string  `json:"productImage,omitempty"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	TotalPrice   float64 `json:"totalPrice"`
}

// Order is an immutable record of a submitted checkout. Status changes after
// creation belong to order management, not to this core.
type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"orderNumber"`
	Status            OrderStatus     `json:"status"`
	Items             []OrderItem     `json:"items"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	Payment           PaymentMethod   `json:"paymentMethod"`
	Pricing           OrderSummary    `json:"pricing"`
	Currency          string          `json:"currency"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery,omitempty"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}
