package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the API surface. An OrderHistory of nil disables the
// /api/orders history routes (running without a local database).
func NewRouter(carts *CartHandler, checkouts *CheckoutHandler, history *OrdersHandler, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Delete("/", carts.ClearCart)
			r.Post("/items", carts.AddItem)
			r.Route("/items/{itemID}", func(r chi.Router) {
				r.Patch("/", carts.UpdateQuantity)
				r.Delete("/", carts.RemoveItem)
				r.Post("/increase", carts.IncreaseQuantity)
				r.Post("/decrease", carts.DecreaseQuantity)
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkouts.GetState)
			r.Get("/summary", checkouts.Summary)
			r.Post("/shipping", checkouts.SubmitShipping)
			r.Post("/shipping/method", checkouts.SelectShippingMethod)
			r.Post("/payment/card", checkouts.EnterCard)
			r.Post("/payment/method", checkouts.SelectMethod)
			r.Post("/payment/wallet", checkouts.SelectWallet)
			r.Post("/back", checkouts.Back)
		})

		r.Get("/payment-methods", checkouts.ListPaymentMethods)

		r.Post("/orders", checkouts.PlaceOrder)
		if history != nil {
			r.Get("/orders", history.ListOrders)
			r.Get("/orders/{orderID}", history.GetOrder)
		}
	})

	return r
}
