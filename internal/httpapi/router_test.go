package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/cart"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/checkout"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway/memory"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyMock struct {
	orders []*domain.Order
}

func (m *historyMock) ListOrders(context.Context) ([]*domain.Order, error) {
	return m.orders, nil
}

func (m *historyMock) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func newTestServer(t *testing.T, history *historyMock) *httptest.Server {
	t.Helper()

	backend := memory.NewBackend()
	store := cart.NewStore(backend)
	orchestrator := checkout.New(store, backend, backend, backend)

	var ordersHandler *OrdersHandler
	if history != nil {
		ordersHandler = NewOrdersHandler(history)
	}

	router := NewRouter(
		NewCartHandler(store),
		NewCheckoutHandler(orchestrator),
		ordersHandler,
		5*time.Second,
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestGetCart_Empty(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/cart", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
	assert.Equal(t, 0.0, body["total"])
}

func TestAddItem_ReturnsUpdatedCart(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "pf001", Quantity: 2})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 104.34, body["total"])
	assert.Equal(t, 2.0, body["totalItems"])
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "pf001", Quantity: 0})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_quantity", body["code"])
}

func TestAddItem_UnknownProduct(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "nope", Quantity: 1})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "product_not_found", body["code"])
}

func TestUpdateQuantity_StockConflict(t *testing.T) {
	srv := newTestServer(t, nil)
	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "pf003", Quantity: 1})
	itemID := body["items"].([]interface{})[0].(map[string]interface{})["id"].(string)

	resp, errBody := doJSON(t, http.MethodPatch, srv.URL+"/api/cart/items/"+itemID,
		UpdateQuantityRequestDTO{Quantity: 26})

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "stock_conflict", errBody["code"])
}

func TestRemoveItem_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	doJSON(t, http.MethodGet, srv.URL+"/api/cart", nil) // load the store

	resp, body := doJSON(t, http.MethodDelete, srv.URL+"/api/cart/items/missing", nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "item_not_found", body["code"])
}

func TestIncreaseDecrease(t *testing.T) {
	srv := newTestServer(t, nil)
	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "pf002", Quantity: 1})
	itemID := body["items"].([]interface{})[0].(map[string]interface{})["id"].(string)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/cart/items/"+itemID+"/increase", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.0, body["totalItems"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/cart/items/"+itemID+"/decrease", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["totalItems"])
}

func TestCheckout_ShippingWithEmptyCart(t *testing.T) {
	srv := newTestServer(t, nil)
	doJSON(t, http.MethodGet, srv.URL+"/api/cart", nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/shipping", validAddress())

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "empty_cart", body["code"])
}

func validAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName: "Jane",
		LastName:  "Doe",
		Address:   "123 Main Street",
		City:      "Springfield",
		State:     "IL",
		ZipCode:   "62704",
		Country:   "US",
	}
}

func TestCheckout_FullFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "pf001", Quantity: 2})

	resp, state := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/shipping", validAddress())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "payment", state["step"])
	quote := state["shippingQuote"].(map[string]interface{})
	assert.Equal(t, 15.99, quote["cost"])
	normalized := state["shippingAddress"].(map[string]interface{})
	assert.Equal(t, "123 Main St", normalized["address"])

	resp, state = doJSON(t, http.MethodPost, srv.URL+"/api/checkout/payment/method",
		SelectMethodRequestDTO{MethodID: "pm_card123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "review", state["step"])

	resp, summary := doJSON(t, http.MethodGet, srv.URL+"/api/checkout/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 115.33, summary["total"]) // 91.98 + 15.99 + 7.36

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/orders",
		PlaceOrderRequestDTO{AgreeToTerms: false})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "terms_not_accepted", body["code"])

	resp, order := doJSON(t, http.MethodPost, srv.URL+"/api/orders",
		PlaceOrderRequestDTO{AgreeToTerms: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, order["orderNumber"], "ORD-")
	assert.Equal(t, "confirmed", order["status"])

	resp, state = doJSON(t, http.MethodGet, srv.URL+"/api/checkout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmation", state["step"])

	resp, cartBody := doJSON(t, http.MethodGet, srv.URL+"/api/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, cartBody["items"])
}

func TestCheckout_EnterCardInvalid(t *testing.T) {
	srv := newTestServer(t, nil)
	doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "pf001", Quantity: 1})
	doJSON(t, http.MethodPost, srv.URL+"/api/checkout/shipping", validAddress())

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/payment/card",
		domain.CardDetails{CardNumber: "4242424242424242"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_card", body["code"])
}

func TestCheckout_SummaryBeforeQuoteUsesCartShipping(t *testing.T) {
	srv := newTestServer(t, nil)
	doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "pf001", Quantity: 2})

	resp, summary := doJSON(t, http.MethodGet, srv.URL+"/api/checkout/summary", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 104.34, summary["total"]) // flat cart shipping, no quote yet
}

func TestCheckout_WalletTypeRejected(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/payment/wallet",
		SelectWalletRequestDTO{Type: "card"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_wallet_type", body["code"])
}

func TestPaymentMethods(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/payment-methods")
	require.NoError(t, err)
	defer resp.Body.Close()

	var methods []domain.PaymentMethod
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&methods))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, methods, 3)
}

func TestOrderHistory(t *testing.T) {
	history := &historyMock{orders: []*domain.Order{
		{ID: "order_1", OrderNumber: "ORD-2026-000001"},
	}}
	srv := newTestServer(t, history)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/orders/order_1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ORD-2026-000001", body["orderNumber"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "order_not_found", body["code"])

	resp, err := http.Get(srv.URL + "/api/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list []*domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRequestIDHeader_Propagated(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/health", srv.URL), nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}

func TestCheckout_SelectShippingMethod(t *testing.T) {
	srv := newTestServer(t, nil)
	doJSON(t, http.MethodPost, srv.URL+"/api/cart/items",
		AddItemRequestDTO{ProductID: "pf001", Quantity: 2})
	doJSON(t, http.MethodPost, srv.URL+"/api/checkout/shipping", validAddress())

	resp, state := doJSON(t, http.MethodPost, srv.URL+"/api/checkout/shipping/method",
		SelectMethodRequestDTO{MethodID: "express"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	quote := state["shippingQuote"].(map[string]interface{})
	assert.Equal(t, 29.99, quote["cost"])

	resp, summary := doJSON(t, http.MethodGet, srv.URL+"/api/checkout/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 129.33, summary["total"]) // 91.98 + 29.99 + 7.36
}
