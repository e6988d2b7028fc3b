package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mu   sync.Mutex
	cart *domain.Cart

	fetchErr  error
	addErr    error
	setErr    error
	removeErr error
	clearErr  error

	fetchCalls  int
	addCalls    int
	setCalls    int
	removeCalls int
	clearCalls  int

	// When set, SetQuantity blocks until the matching channel is closed.
	setGate chan struct{}
	// Signals that SetQuantity has been entered.
	setEntered chan struct{}
}

func (m *mockBackend) FetchCart(context.Context) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.cart.Clone(), nil
}

func (m *mockBackend) AddItem(_ context.Context, productID string, quantity int) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.cart.Clone(), nil
}

func (m *mockBackend) SetQuantity(_ context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	gate := m.setGate
	entered := m.setEntered
	m.setGate = nil
	m.setEntered = nil
	m.setCalls++
	err := m.setErr
	if err == nil && m.cart != nil {
		if item := m.cart.Item(itemID); item != nil {
			item.Quantity = quantity
		}
	}
	m.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (m *mockBackend) RemoveItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls++
	if m.removeErr != nil {
		return m.removeErr
	}
	items := make([]domain.CartItem, 0, len(m.cart.Items))
	for _, it := range m.cart.Items {
		if it.ID != itemID {
			items = append(items, it)
		}
	}
	m.cart.Items = items
	return nil
}

func (m *mockBackend) ClearCart(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCalls++
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cart.Items = nil
	return nil
}

func testCart() *domain.Cart {
	return &domain.Cart{
		ID: "cart123",
		Items: []domain.CartItem{
			{
				ID: "1",
				Product: domain.Product{
					ID:         "pf001",
					Name:       "Premium Dog Food",
					Price:      45.99,
					InStock:    true,
					StockCount: 50,
				},
				Quantity: 2,
				AddedAt:  time.Now(),
			},
		},
		Tax:      7.36,
		Shipping: 5.00,
	}
}

func newTestStore(t *testing.T, backend *mockBackend) *Store {
	s := NewStore(backend)
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	return s
}

func TestLoad_RecomputesAggregates(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := NewStore(backend)

	cart, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 91.98, cart.Subtotal)
	assert.Equal(t, 7.36, cart.Tax)
	assert.Equal(t, 5.00, cart.Shipping)
	assert.Equal(t, 104.34, cart.Total)
	assert.Equal(t, 2, cart.TotalItems)
}

func TestLoad_FetchError(t *testing.T) {
	backend := &mockBackend{fetchErr: errors.New("boom")}
	s := NewStore(backend)

	_, err := s.Load(context.Background())

	require.Error(t, err)
	assert.Nil(t, s.Cart())
}

func TestAddItem_ReplacesCartWithServerResponse(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	backend.mu.Lock()
	backend.cart.Items = append(backend.cart.Items, domain.CartItem{
		ID:       "2",
		Product:  domain.Product{ID: "pf002", Price: 9.99, InStock: true, StockCount: 100},
		Quantity: 1,
	})
	backend.mu.Unlock()

	err := s.AddItem(context.Background(), "pf002", 1)

	require.NoError(t, err)
	cart := s.Cart()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 101.97, cart.Subtotal)
}

func TestAddItem_FailureLeavesCartUntouched(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)
	before := s.Cart()

	backend.addErr = errors.New("boom")
	err := s.AddItem(context.Background(), "pf002", 1)

	require.Error(t, err)
	assert.Equal(t, before, s.Cart())
}

func TestAddItem_RejectsZeroQuantityLocally(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	err := s.AddItem(context.Background(), "pf002", 0)

	assert.ErrorIs(t, err, ErrQuantityTooLow)
	assert.Equal(t, 0, backend.addCalls)
}

func TestUpdateQuantity_OptimisticTotals(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	err := s.UpdateQuantity(context.Background(), "1", 3)

	require.NoError(t, err)
	cart := s.Cart()
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 137.97, cart.Subtotal)
	assert.Equal(t, 150.33, cart.Total)
	assert.Equal(t, 1, backend.setCalls)
}

func TestUpdateQuantity_OptimisticValueVisibleBeforeSettlement(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	gate := make(chan struct{})
	entered := make(chan struct{})
	backend.mu.Lock()
	backend.setGate = gate
	backend.setEntered = entered
	backend.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.UpdateQuantity(context.Background(), "1", 3)
	}()
	<-entered

	// The backend has not answered yet; the local cart already shows the
	// intended state with recomputed totals.
	cart := s.Cart()
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 137.97, cart.Subtotal)

	close(gate)
	require.NoError(t, <-done)
}

func TestUpdateQuantity_RollbackIsExact(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)
	before := s.Cart()

	backend.setErr = errors.New("boom")
	err := s.UpdateQuantity(context.Background(), "1", 3)

	require.Error(t, err)
	assert.Equal(t, before, s.Cart())
	assert.Equal(t, 104.34, s.Cart().Total)
}

func TestUpdateQuantity_StockConflictRollsBackAndRefetches(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)
	fetchesBefore := backend.fetchCalls

	backend.setErr = gateway.ErrStockConflict
	err := s.UpdateQuantity(context.Background(), "1", 3)

	assert.ErrorIs(t, err, gateway.ErrStockConflict)
	assert.Equal(t, 2, s.Cart().Items[0].Quantity)
	assert.Equal(t, 104.34, s.Cart().Total)
	assert.Greater(t, backend.fetchCalls, fetchesBefore)
}

func TestUpdateQuantity_LocalRejections(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	assert.ErrorIs(t, s.UpdateQuantity(context.Background(), "1", 0), ErrQuantityTooLow)
	assert.ErrorIs(t, s.UpdateQuantity(context.Background(), "1", 51), ErrExceedsStock)
	assert.ErrorIs(t, s.UpdateQuantity(context.Background(), "nope", 2), gateway.ErrItemNotFound)
	// No optimistic write happened, so nothing changed and nothing settled.
	assert.Equal(t, 0, backend.setCalls)
	assert.Equal(t, 2, s.Cart().Items[0].Quantity)
}

func TestUpdateQuantity_OutOfStockRejectedLocally(t *testing.T) {
	c := testCart()
	c.Items[0].Product.InStock = false
	backend := &mockBackend{cart: c}
	s := newTestStore(t, backend)

	err := s.UpdateQuantity(context.Background(), "1", 3)

	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, 0, backend.setCalls)
}

func TestUpdateQuantity_StaleSettlementDoesNotStompNewerValue(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	gate := make(chan struct{})
	entered := make(chan struct{})
	backend.mu.Lock()
	backend.setGate = gate
	backend.setEntered = entered
	backend.mu.Unlock()

	first := make(chan error, 1)
	go func() {
		first <- s.UpdateQuantity(context.Background(), "1", 3)
	}()
	<-entered

	// Second update for the same item lands while the first is in flight.
	require.NoError(t, s.UpdateQuantity(context.Background(), "1", 5))
	assert.Equal(t, 5, s.Cart().Items[0].Quantity)

	// First settlement arrives late; it is superseded and must not flicker
	// the cart back to 3.
	close(gate)
	require.NoError(t, <-first)
	assert.Equal(t, 5, s.Cart().Items[0].Quantity)
}

func TestRemoveItem_Optimistic(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	err := s.RemoveItem(context.Background(), "1")

	require.NoError(t, err)
	cart := s.Cart()
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Subtotal)
	assert.Equal(t, 1, backend.removeCalls)
}

func TestRemoveItem_RollbackOnFailure(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)
	before := s.Cart()

	backend.removeErr = errors.New("boom")
	err := s.RemoveItem(context.Background(), "1")

	require.Error(t, err)
	assert.Equal(t, before, s.Cart())
}

func TestRemoveItem_UnknownItemRejectedLocally(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	err := s.RemoveItem(context.Background(), "nope")

	assert.ErrorIs(t, err, gateway.ErrItemNotFound)
	assert.Equal(t, 0, backend.removeCalls)
}

func TestClear_EmptiesCartAndZeroesTotals(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	err := s.Clear(context.Background())

	require.NoError(t, err)
	cart := s.Cart()
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Total)
	assert.True(t, s.IsEmpty())
}

func TestClear_RollbackOnFailure(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)
	before := s.Cart()

	backend.clearErr = errors.New("boom")
	err := s.Clear(context.Background())

	require.Error(t, err)
	assert.Equal(t, before, s.Cart())
	assert.False(t, s.IsEmpty())
}

func TestDerivedQueries(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	assert.True(t, s.CanIncreaseQuantity("1"))
	assert.False(t, s.CanIncreaseQuantity("nope"))
	assert.True(t, s.IsItemInCart("pf001"))
	assert.False(t, s.IsItemInCart("pf999"))
	assert.Equal(t, 2, s.ItemQuantity("pf001"))
	assert.Equal(t, 0, s.ItemQuantity("pf999"))
	assert.Equal(t, 2, s.ItemCount())
}

func TestCanIncreaseQuantity_AtStockCeiling(t *testing.T) {
	c := testCart()
	c.Items[0].Quantity = 50
	backend := &mockBackend{cart: c}
	s := newTestStore(t, backend)

	assert.False(t, s.CanIncreaseQuantity("1"))
}

func TestIncreaseDecreaseQuantity(t *testing.T) {
	backend := &mockBackend{cart: testCart()}
	s := newTestStore(t, backend)

	require.NoError(t, s.IncreaseQuantity(context.Background(), "1"))
	assert.Equal(t, 3, s.Cart().Items[0].Quantity)

	require.NoError(t, s.DecreaseQuantity(context.Background(), "1"))
	assert.Equal(t, 2, s.Cart().Items[0].Quantity)
}

func TestDecreaseQuantity_AtOneIsNoop(t *testing.T) {
	c := testCart()
	c.Items[0].Quantity = 1
	backend := &mockBackend{cart: c}
	s := newTestStore(t, backend)

	require.NoError(t, s.DecreaseQuantity(context.Background(), "1"))

	assert.Equal(t, 1, s.Cart().Items[0].Quantity)
	assert.Equal(t, 0, backend.setCalls)
}

func TestMutationsBeforeLoadAreRejected(t *testing.T) {
	s := NewStore(&mockBackend{cart: testCart()})

	assert.ErrorIs(t, s.UpdateQuantity(context.Background(), "1", 2), ErrNotLoaded)
	assert.ErrorIs(t, s.RemoveItem(context.Background(), "1"), ErrNotLoaded)
	assert.ErrorIs(t, s.Clear(context.Background()), ErrNotLoaded)
}
