// Package checkout drives one checkout attempt through the
// shipping -> payment -> review -> confirmation pipeline. Each forward
// transition has a precondition; a failed precondition keeps the session on
// its current step with already-accepted data untouched.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/cart"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/pricing"
)

var (
	ErrEmptyCart             = errors.New("cart is empty, nothing to check out")
	ErrIllegalTransition     = errors.New("illegal checkout step transition")
	ErrAddressInvalid        = errors.New("shipping address failed validation")
	ErrTermsNotAccepted      = errors.New("terms must be accepted before placing the order")
	ErrSubmissionInFlight    = errors.New("an order submission is already in progress")
	ErrSessionComplete       = errors.New("checkout session is complete, start a new one")
	ErrPaymentMethodUnknown  = errors.New("payment method not found")
	ErrShippingMethodUnknown = errors.New("shipping method not offered for this address")
)

// State is the data accumulated by one checkout attempt. A step's fields are
// populated exactly when that step has completed.
type State struct {
	Step            Step
	ShippingAddress *domain.ShippingAddress
	ShippingQuote   *gateway.ShippingQuote
	PaymentMethod   *domain.PaymentMethod
}

// OrderRecorder receives successfully submitted orders, e.g. the local order
// history repository. Recording is best effort and never fails the checkout.
type OrderRecorder interface {
	SaveOrder(ctx context.Context, order *domain.Order) error
}

// Orchestrator is the step state machine for a single checkout session.
// Methods are safe for concurrent use, but the session itself is sequential:
// a step transition in flight blocks a competing trigger for the same step.
type Orchestrator struct {
	cart     *cart.Store
	shipping gateway.ShippingService
	payments gateway.PaymentMethodSource
	orders   gateway.OrderService
	recorder OrderRecorder

	mu       sync.Mutex
	state    State
	inFlight bool
	cvv      string
}

func New(cartStore *cart.Store, shipping gateway.ShippingService, payments gateway.PaymentMethodSource, orders gateway.OrderService) *Orchestrator {
	return &Orchestrator{
		cart:     cartStore,
		shipping: shipping,
		payments: payments,
		orders:   orders,
		state:    State{Step: StepShipping},
	}
}

// WithRecorder registers a sink for submitted orders.
func (o *Orchestrator) WithRecorder(r OrderRecorder) *Orchestrator {
	o.recorder = r
	return o
}

// State returns a copy of the accumulated checkout data.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Step
}

// SubmitShippingAddress validates the address and prices shipping for it.
// Both calls must succeed for the shipping -> payment transition; on any
// failure the session stays on shipping and no state is written. When the
// service returns a normalized address, the normalized value is the one
// accepted into state.
func (o *Orchestrator) SubmitShippingAddress(ctx context.Context, addr domain.ShippingAddress) error {
	if err := o.begin(StepShipping, StepPayment); err != nil {
		return err
	}
	defer o.end()

	validation, err := o.shipping.ValidateAddress(ctx, addr)
	if err != nil {
		return fmt.Errorf("validate address: %w", err)
	}
	if !validation.Valid {
		if len(validation.Errors) > 0 {
			return fmt.Errorf("%w: %s", ErrAddressInvalid, strings.Join(validation.Errors, "; "))
		}
		return ErrAddressInvalid
	}

	accepted := addr
	if validation.Normalized != nil {
		accepted = *validation.Normalized
	}

	quote, err := o.shipping.CalculateShipping(ctx, accepted)
	if err != nil {
		return fmt.Errorf("calculate shipping: %w", err)
	}

	o.mu.Lock()
	o.state.ShippingAddress = &accepted
	o.state.ShippingQuote = quote
	o.state.Step = StepPayment
	o.mu.Unlock()
	return nil
}

// EnterCard normalizes a freshly entered card and completes the payment step.
// Validation is local; no network call is made.
func (o *Orchestrator) EnterCard(card domain.CardDetails) error {
	if err := o.begin(StepPayment, StepReview); err != nil {
		return err
	}
	defer o.end()

	method, cvv, err := normalizeCard(card)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.state.PaymentMethod = &method
	o.cvv = cvv
	o.state.Step = StepReview
	o.mu.Unlock()
	return nil
}

// SelectSavedMethod completes the payment step with a saved instrument,
// resolved against the payment method registry.
func (o *Orchestrator) SelectSavedMethod(ctx context.Context, methodID string) error {
	if err := o.begin(StepPayment, StepReview); err != nil {
		return err
	}
	defer o.end()

	methods, err := o.payments.ListPaymentMethods(ctx)
	if err != nil {
		return fmt.Errorf("list payment methods: %w", err)
	}
	for i := range methods {
		if methods[i].ID == methodID {
			m := methods[i]
			o.mu.Lock()
			o.state.PaymentMethod = &m
			o.cvv = ""
			o.state.Step = StepReview
			o.mu.Unlock()
			return nil
		}
	}
	return ErrPaymentMethodUnknown
}

// SelectWallet completes the payment step with a wallet instrument, which
// needs no card fields.
func (o *Orchestrator) SelectWallet(walletType domain.PaymentMethodType, email string) error {
	if !walletType.IsWallet() {
		return fmt.Errorf("%w: %s is not a wallet type", ErrPaymentMethodUnknown, walletType)
	}
	if err := o.begin(StepPayment, StepReview); err != nil {
		return err
	}
	defer o.end()

	method := domain.PaymentMethod{
		ID:    fmt.Sprintf("%s_%d", walletType, time.Now().UnixNano()),
		Type:  walletType,
		Email: email,
	}
	o.mu.Lock()
	o.state.PaymentMethod = &method
	o.cvv = ""
	o.state.Step = StepReview
	o.mu.Unlock()
	return nil
}

// Back moves one step backwards (payment -> shipping or review -> payment)
// and discards the data the abandoned step had accepted, so a step's fields
// stay populated exactly when the step is complete.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return ErrSubmissionInFlight
	}
	switch o.state.Step {
	case StepPayment:
		o.state.ShippingAddress = nil
		o.state.ShippingQuote = nil
		o.state.Step = StepShipping
		return nil
	case StepReview:
		o.state.PaymentMethod = nil
		o.cvv = ""
		o.state.Step = StepPayment
		return nil
	default:
		return ErrIllegalTransition
	}
}

// PaymentMethods lists the saved instruments available to this session.
func (o *Orchestrator) PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return o.payments.ListPaymentMethods(ctx)
}

// Summary prices the order as it would be submitted right now: current cart
// items, the cart's tax, and the quoted shipping cost once one is accepted.
func (o *Orchestrator) Summary() (domain.OrderSummary, error) {
	snapshot := o.cart.Cart()
	if snapshot.IsEmpty() {
		return domain.OrderSummary{}, ErrEmptyCart
	}

	o.mu.Lock()
	quote := o.state.ShippingQuote
	o.mu.Unlock()

	shipping := snapshot.Shipping
	if quote != nil {
		shipping = quote.Cost
	}
	b := pricing.Compute(snapshot.Items, pricing.TaxAmount(snapshot.Tax), shipping)
	return domain.OrderSummary{
		Subtotal: b.Subtotal,
		Shipping: b.Shipping,
		Tax:      b.Tax,
		Total:    b.Total,
	}, nil
}

// SelectShippingMethod re-prices the session with one of the quote's method
// options. It is available any time after a quote was accepted, up until the
// session completes; the chosen cost becomes the one frozen into the order.
func (o *Orchestrator) SelectShippingMethod(methodID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Step.IsTerminal() {
		return ErrSessionComplete
	}
	if o.inFlight {
		return ErrSubmissionInFlight
	}
	if o.state.ShippingQuote == nil {
		return ErrIllegalTransition
	}

	for _, m := range o.state.ShippingQuote.Methods {
		if m.ID == methodID {
			quote := *o.state.ShippingQuote
			quote.Cost = m.Cost
			quote.EstimatedDays = m.EstimatedDays
			o.state.ShippingQuote = &quote
			return nil
		}
	}
	return ErrShippingMethodUnknown
}

// PlaceOrder submits the order exactly once per trigger: a second call while
// the first is pending is rejected, and the cart is cleared only after the
// submission succeeded. On failure the session stays on review with all
// accepted data intact.
func (o *Orchestrator) PlaceOrder(ctx context.Context, acceptTerms bool) (*domain.Order, error) {
	o.mu.Lock()
	if o.state.Step.IsTerminal() {
		o.mu.Unlock()
		return nil, ErrSessionComplete
	}
	if o.state.Step != StepReview {
		o.mu.Unlock()
		return nil, ErrIllegalTransition
	}
	if !acceptTerms {
		o.mu.Unlock()
		return nil, ErrTermsNotAccepted
	}
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	o.inFlight = true
	address := *o.state.ShippingAddress
	payment := *o.state.PaymentMethod
	quote := *o.state.ShippingQuote
	cvv := o.cvv
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	snapshot := o.cart.Cart()
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}

	// Freeze the payload with the quoted shipping cost, not the cart's
	// default shipping estimate.
	b := pricing.Compute(snapshot.Items, pricing.TaxAmount(snapshot.Tax), quote.Cost)
	req := &gateway.OrderRequest{
		Items:           snapshot.Items,
		ShippingAddress: address,
		Payment:         payment,
		CardCVV:         cvv,
		Pricing: domain.OrderSummary{
			Subtotal: b.Subtotal,
			Shipping: b.Shipping,
			Tax:      b.Tax,
			Total:    b.Total,
		},
	}

	order, err := o.orders.SubmitOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	o.mu.Lock()
	o.cvv = ""
	o.state.Step = StepConfirmation
	o.mu.Unlock()

	if clearErr := o.cart.Clear(ctx); clearErr != nil {
		// The order exists; a stale cart is a cosmetic problem the next
		// reconciliation fixes.
		log.Printf("cart clear after order %s failed: %v", order.ID, clearErr)
	}
	if o.recorder != nil {
		if recErr := o.recorder.SaveOrder(ctx, order); recErr != nil {
			log.Printf("recording order %s failed: %v", order.ID, recErr)
		}
	}
	return order, nil
}

// begin guards a forward transition: the session must be on from, the target
// must be reachable, the cart must not be empty, and no other transition may
// be in flight.
func (o *Orchestrator) begin(from, to Step) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Step.IsTerminal() {
		return ErrSessionComplete
	}
	if o.state.Step != from || !canTransition(from, to) {
		return ErrIllegalTransition
	}
	if o.inFlight {
		return ErrSubmissionInFlight
	}
	if o.cart.IsEmpty() {
		return ErrEmptyCart
	}
	o.inFlight = true
	return nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.inFlight = false
	o.mu.Unlock()
}
