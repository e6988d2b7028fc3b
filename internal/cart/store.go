// Package cart owns the authoritative in-memory shopping cart. All mutations
// go through the Store; UI code only reads snapshots and issues intents.
//
// Mutations that already know the product locally (quantity change, removal,
// clear) are optimistic: the local cart is rewritten first, the backend call
// settles afterwards, and a pre-mutation snapshot is kept as the rollback
// point. Settlement reconciles by refetching authoritative state instead of
// trusting a possibly stale response body, so a slow first response can never
// stomp a newer optimistic value.
package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/LeeCheeHoong/PetCare-Portal/internal/domain"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/gateway"
	"github.com/LeeCheeHoong/PetCare-Portal/internal/pricing"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotLoaded      = errors.New("cart has not been loaded")
	ErrQuantityTooLow = errors.New("quantity must be at least 1")
	ErrExceedsStock   = errors.New("quantity exceeds available stock")
	ErrOutOfStock     = errors.New("product is out of stock")
)

type Store struct {
	backend gateway.CartBackend
	sfg     singleflight.Group // dedupes concurrent authoritative fetches

	mu      sync.Mutex
	cur     *domain.Cart
	gen     uint64            // bumped on every local write; stale fetches check it
	itemSeq map[string]uint64 // per-item sequence, last local write wins
}

func NewStore(backend gateway.CartBackend) *Store {
	return &Store{
		backend: backend,
		itemSeq: make(map[string]uint64),
	}
}

// Load fetches the authoritative cart. A failure here is terminal for the
// caller's screen; the store holds no state until a load succeeds.
func (s *Store) Load(ctx context.Context) (*domain.Cart, error) {
	if err := s.refetch(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil, ErrNotLoaded
	}
	return s.cur.Clone(), nil
}

// refetch pulls authoritative state and adopts it unless a newer local write
// happened while the fetch was in flight (that write's settlement owns the
// next reconciliation).
func (s *Store) refetch(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	v, err, _ := s.sfg.Do("cart", func() (interface{}, error) {
		return s.backend.FetchCart(ctx)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	s.adoptLocked(v.(*domain.Cart))
	return nil
}

// AddItem requests a server-side append. No optimistic item materializes
// because the product's price and stock are unknown before the call; on
// failure nothing changes locally.
func (s *Store) AddItem(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	updated, err := s.backend.AddItem(ctx, productID, quantity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// An optimistic write landed while the add was in flight; leave it
		// visible, its settlement refetch will fold the new item in.
		return nil
	}
	s.adoptLocked(updated)
	return nil
}

// UpdateQuantity applies the new quantity optimistically and sends it to the
// backend. Values below 1 or above the known stock are rejected locally
// before any network call.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}

	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	item := s.cur.Item(itemID)
	if item == nil {
		s.mu.Unlock()
		return gateway.ErrItemNotFound
	}
	if !item.Product.InStock {
		s.mu.Unlock()
		return ErrOutOfStock
	}
	if quantity > item.Product.StockCount {
		s.mu.Unlock()
		return ErrExceedsStock
	}

	snapshot := s.cur.Clone()
	item.Quantity = quantity
	s.recomputeLocked()
	s.gen++
	s.itemSeq[itemID]++
	seq := s.itemSeq[itemID]
	s.mu.Unlock()

	return s.settle(ctx, itemID, seq, snapshot, s.backend.SetQuantity(ctx, itemID, quantity))
}

// RemoveItem optimistically drops the item, with the same snapshot and
// rollback discipline as UpdateQuantity.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	if s.cur.Item(itemID) == nil {
		s.mu.Unlock()
		return gateway.ErrItemNotFound
	}

	snapshot := s.cur.Clone()
	items := s.cur.Items[:0:0]
	for _, it := range s.cur.Items {
		if it.ID != itemID {
			items = append(items, it)
		}
	}
	s.cur.Items = items
	s.recomputeLocked()
	s.gen++
	s.itemSeq[itemID]++
	seq := s.itemSeq[itemID]
	s.mu.Unlock()

	return s.settle(ctx, itemID, seq, snapshot, s.backend.RemoveItem(ctx, itemID))
}

// settle resolves an optimistic mutation once its backend call returned.
// A superseded operation (a newer local write for the same item) neither
// rolls back nor reconciles; the newest write's settlement does that.
func (s *Store) settle(ctx context.Context, itemID string, seq uint64, snapshot *domain.Cart, err error) error {
	s.mu.Lock()
	if s.itemSeq[itemID] != seq {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.cur = snapshot
		s.gen++
		s.mu.Unlock()
		if errors.Is(err, gateway.ErrStockConflict) {
			// Stock changed server side; force reconciliation so the flagged
			// stock counts reach the UI.
			if rerr := s.refetch(ctx); rerr != nil {
				log.Printf("cart refetch after stock conflict failed: %v", rerr)
			}
		}
		return err
	}
	s.mu.Unlock()

	if rerr := s.refetch(ctx); rerr != nil {
		log.Printf("cart refetch after mutation failed: %v", rerr)
	}
	return nil
}

// Clear optimistically empties the cart. Used after a confirmed order or by
// explicit user action.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	snapshot := s.cur.Clone()
	s.cur.Items = nil
	s.cur.Tax = 0
	s.cur.Shipping = 0
	s.recomputeLocked()
	s.gen++
	s.mu.Unlock()

	if err := s.backend.ClearCart(ctx); err != nil {
		s.mu.Lock()
		s.cur = snapshot
		s.gen++
		s.mu.Unlock()
		return err
	}
	return nil
}

// IncreaseQuantity bumps the item's quantity by one.
func (s *Store) IncreaseQuantity(ctx context.Context, itemID string) error {
	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	item := s.cur.Item(itemID)
	if item == nil {
		s.mu.Unlock()
		return gateway.ErrItemNotFound
	}
	next := item.Quantity + 1
	s.mu.Unlock()
	return s.UpdateQuantity(ctx, itemID, next)
}

// DecreaseQuantity lowers the item's quantity by one. At quantity 1 it is a
// no-op; removal is a separate, explicit intent.
func (s *Store) DecreaseQuantity(ctx context.Context, itemID string) error {
	s.mu.Lock()
	if s.cur == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	item := s.cur.Item(itemID)
	if item == nil {
		s.mu.Unlock()
		return gateway.ErrItemNotFound
	}
	if item.Quantity <= 1 {
		s.mu.Unlock()
		return nil
	}
	next := item.Quantity - 1
	s.mu.Unlock()
	return s.UpdateQuantity(ctx, itemID, next)
}

// Cart returns a snapshot of the current cart, or nil before the first load.
func (s *Store) Cart() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Clone()
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.IsEmpty()
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return 0
	}
	return s.cur.TotalItems
}

// CanIncreaseQuantity reports whether the item is in stock with headroom
// below its stock count.
func (s *Store) CanIncreaseQuantity(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return false
	}
	item := s.cur.Item(itemID)
	if item == nil {
		return false
	}
	return item.Product.InStock && item.Quantity < item.Product.StockCount
}

func (s *Store) IsItemInCart(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return false
	}
	return s.cur.ItemByProduct(productID) != nil
}

func (s *Store) ItemQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return 0
	}
	if item := s.cur.ItemByProduct(productID); item != nil {
		return item.Quantity
	}
	return 0
}

// adoptLocked replaces the snapshot with server state and rederives the
// aggregates, keeping the totals invariant even for server-sent carts.
func (s *Store) adoptLocked(c *domain.Cart) {
	s.cur = c.Clone()
	s.recomputeLocked()
}

func (s *Store) recomputeLocked() {
	b := pricing.Compute(s.cur.Items, pricing.TaxAmount(s.cur.Tax), s.cur.Shipping)
	s.cur.Subtotal = b.Subtotal
	s.cur.Tax = b.Tax
	s.cur.Shipping = b.Shipping
	s.cur.Total = b.Total
	s.cur.TotalItems = pricing.TotalItems(s.cur.Items)
	s.cur.UpdatedAt = time.Now()
}
