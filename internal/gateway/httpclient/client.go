// Package httpclient implements the gateway boundary against the storefront
// backend's REST API. Transports are traced with otelhttp; shipping pricing
// sits behind a circuit breaker because it fans out to carrier services and
// is the flakiest dependency in the flow.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Client struct {
	baseURL string
	http    *http.Client
	quoteCB *gobreaker.CircuitBreaker[*gateway.ShippingQuote]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker[*gateway.ShippingQuote](gobreaker.Settings{
		Name:    "shipping-quote",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		quoteCB: cb,
	}
}

func (c *Client) FetchCart(ctx context.Context) (*domain.Cart, error) {
	cart := &domain.Cart{}
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, cart); err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	return cart, nil
}

func (c *Client) AddItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	body := map[string]interface{}{"productId": productID, "quantity": quantity}
	cart := &domain.Cart{}
	if err := c.do(ctx, http.MethodPost, "/api/cart/items", body, cart); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	return cart, nil
}

func (c *Client) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	body := map[string]interface{}{"quantity": quantity}
	if err := c.do(ctx, http.MethodPatch, "/api/cart/items/"+itemID, body, nil); err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	return nil
}

func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/cart/items/"+itemID, nil, nil); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/cart", nil, nil); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (c *Client) ValidateAddress(ctx context.Context, addr domain.ShippingAddress) (*gateway.AddressValidation, error) {
	result := &gateway.AddressValidation{}
	if err := c.do(ctx, http.MethodPost, "/api/shipping/validate", addr, result); err != nil {
		return nil, fmt.Errorf("validate address: %w", err)
	}
	return result, nil
}

func (c *Client) CalculateShipping(ctx context.Context, addr domain.ShippingAddress) (*gateway.ShippingQuote, error) {
	return c.quoteCB.Execute(func() (*gateway.ShippingQuote, error) {
		quote := &gateway.ShippingQuote{}
		if err := c.do(ctx, http.MethodPost, "/api/shipping/calculate", addr, quote); err != nil {
			return nil, fmt.Errorf("calculate shipping: %w", err)
		}
		return quote, nil
	})
}

func (c *Client) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	if err := c.do(ctx, http.MethodGet, "/api/payment-methods", nil, &methods); err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return methods, nil
}

func (c *Client) SubmitOrder(ctx context.Context, req *gateway.OrderRequest) (*domain.Order, error) {
	order := &domain.Order{}
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, order); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	return order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return mapStatusError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// mapStatusError converts backend error responses into the gateway's
// sentinel errors so callers can branch with errors.Is.
func mapStatusError(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch body.Code {
	case "stock_conflict":
		return gateway.ErrStockConflict
	case "item_not_found":
		return gateway.ErrItemNotFound
	case "product_not_found":
		return gateway.ErrProductNotFound
	case "address_unresolvable":
		return gateway.ErrAddressUnresolvable
	case "address_not_serviceable":
		return gateway.ErrAddressNotServiceable
	case "payment_declined":
		return gateway.ErrPaymentDeclined
	}

	switch resp.StatusCode {
	case http.StatusConflict:
		return gateway.ErrStockConflict
	case http.StatusNotFound:
		return gateway.ErrItemNotFound
	case http.StatusPaymentRequired:
		return gateway.ErrPaymentDeclined
	}

	if body.Error != "" {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("backend returned %d", resp.StatusCode)
}
