package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sleepoutside/storefront/internal/catalog"
	"github.com/sleepoutside/storefront/internal/kvstore"
)

// Snapshot is the payload delivered to change listeners after every
// successful mutation: the full current state, never a delta.
type Snapshot struct {
	Items      []LineItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	Subtotal   float64    `json:"subtotal"`
}

// Listener receives cart snapshots. Listeners are invoked synchronously,
// in registration order, before the mutating call returns.
type Listener func(Snapshot)

// Store is the single source of truth for cart contents. It enforces
// per-product uniqueness, persists every change through the injected
// key/value store and notifies registered listeners.
//
// The store survives persistence failures: writes are logged and swallowed,
// and the in-memory state stays authoritative for the session. Two processes
// sharing the same backing store are last-write-wins; this is an accepted
// limitation.
type Store struct {
	kv     kvstore.Store
	key    string
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	items      []LineItem
	listeners  map[int]Listener
	listenerID int
}

// NewStore creates a cart Store persisted under the given storage key.
// Previously persisted state is loaded immediately; absent or corrupt state
// degrades to an empty cart, never to an error.
func NewStore(ctx context.Context, kv kvstore.Store, key string, logger *slog.Logger) *Store {
	s := &Store{
		kv:        kv,
		key:       key,
		logger:    logger.With("component", "cart"),
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
	s.items = s.load(ctx)
	return s
}

// load reads the persisted item list. Anything unreadable is "no cart".
func (s *Store) load(ctx context.Context) []LineItem {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("Failed to read persisted cart, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("Persisted cart is not parseable, starting empty", "error", err)
		return nil
	}
	// Drop rows without an identity and repair quantities below the floor.
	kept := items[:0]
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		kept = append(kept, item)
	}
	return kept
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.items)
}

// TotalItemCount returns the sum of quantities across all line items.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalQuantity(s.items)
}

// Subtotal returns the sum of unit price times quantity across all line items.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.items)
}

// FindByProductID returns a copy of the line item for the given product ID.
func (s *Store) FindByProductID(productID string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

// AddItem adds a product to the cart. Adding a product that is already in
// the cart increments its quantity instead of creating a duplicate row.
// Returns false, with no state change, for an invalid product or quantity.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int) bool {
	if quantity < 1 {
		s.logger.Warn("Rejected add with invalid quantity", "quantity", quantity)
		return false
	}
	if !validProduct(product) {
		s.logger.Warn("Rejected invalid product", "product_id", product.ID)
		return false
	}

	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].ProductID == product.ID {
			s.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, newLineItem(product, quantity, s.now()))
	}
	snap, listeners := s.commitLocked(ctx)
	s.mu.Unlock()

	dispatch(listeners, snap)
	return true
}

// RemoveOneOrAll removes the line item for productID. With removeAll set, or
// when the quantity is already at the floor, the row is deleted; otherwise
// the quantity is decremented by one. Returns false if no row matches.
func (s *Store) RemoveOneOrAll(ctx context.Context, productID string, removeAll bool) bool {
	s.mu.Lock()
	index := -1
	for i := range s.items {
		if s.items[i].ProductID == productID {
			index = i
			break
		}
	}
	if index == -1 {
		s.mu.Unlock()
		return false
	}
	if removeAll || s.items[index].Quantity <= 1 {
		s.items = append(s.items[:index], s.items[index+1:]...)
	} else {
		s.items[index].Quantity--
	}
	snap, listeners := s.commitLocked(ctx)
	s.mu.Unlock()

	dispatch(listeners, snap)
	return true
}

// SetQuantity replaces the quantity of the line item for productID.
// Quantities below one are rejected without mutating state. A single
// notification is emitted for the whole update.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) bool {
	if quantity < 1 {
		return false
	}

	s.mu.Lock()
	index := -1
	for i := range s.items {
		if s.items[i].ProductID == productID {
			index = i
			break
		}
	}
	if index == -1 {
		s.mu.Unlock()
		return false
	}
	s.items[index].Quantity = quantity
	snap, listeners := s.commitLocked(ctx)
	s.mu.Unlock()

	dispatch(listeners, snap)
	return true
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	snap, listeners := s.commitLocked(ctx)
	s.mu.Unlock()

	dispatch(listeners, snap)
}

// Subscribe registers a change listener and returns a token for Unsubscribe.
func (s *Store) Subscribe(l Listener) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listenerID++
	s.listeners[s.listenerID] = l
	return s.listenerID
}

// Unsubscribe removes the listener registered under token.
func (s *Store) Unsubscribe(token int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, token)
}

// Snapshot returns the current full cart state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// commitLocked persists the current items and prepares the notification.
// Persistence failures are logged and swallowed; the in-memory state remains
// authoritative for the rest of the session. Callers must hold mu.
func (s *Store) commitLocked(ctx context.Context) (Snapshot, []Listener) {
	data, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error("Failed to serialize cart, state kept in memory only", "error", err)
	} else if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Error("Failed to persist cart, state kept in memory only", "error", err)
	}

	listeners := make([]Listener, 0, len(s.listeners))
	for id := 1; id <= s.listenerID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	return s.snapshotLocked(), listeners
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:      copyItems(s.items),
		TotalItems: totalQuantity(s.items),
		Subtotal:   subtotal(s.items),
	}
}

// dispatch delivers one snapshot per mutation, outside the store lock so
// listeners may call back into the store.
func dispatch(listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l(snap)
	}
}

func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func totalQuantity(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func subtotal(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.UnitPrice * float64(item.Quantity)
	}
	return sum
}
