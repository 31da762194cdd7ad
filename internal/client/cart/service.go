package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/client"
	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/client/watch"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

var (
	ErrItemNotFound    = errors.New("item not in cart")
	ErrExceedsStock    = errors.New("quantity exceeds available stock")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Service is the cart engine. It is safe for concurrent use, but mutations
// of the same product are not serialized: the response that lands last
// wins.
type Service struct {
	api client.CartAPI
	log logging.Logger
	now func() time.Time

	mu    sync.Mutex
	state State
	hub   watch.Hub[State]
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.log = logging.OrNop(l) }
}

// NewService creates an empty cart. Call Fetch after login.
func NewService(api client.CartAPI, opts ...Option) *Service {
	s := &Service{api: api, log: logging.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("module", "cart")
	return s
}

// State returns the current snapshot.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe streams snapshots after every change.
func (s *Service) Subscribe() (<-chan State, func()) {
	return s.hub.Subscribe()
}

// Subtotal is derived from the current items.
func (s *Service) Subtotal() int64 {
	return s.State().Subtotal()
}

// Count is the number of units in the cart.
func (s *Service) Count() int {
	return s.State().Count()
}

// Find returns the line for productID.
func (s *Service) Find(productID string) (models.LineItem, bool) {
	return s.State().Find(productID)
}

// ClearError empties the error slot.
func (s *Service) ClearError() {
	s.dispatch(ErrorCleared{})
}

// Reset forgets the local cart without touching the server.
func (s *Service) Reset() {
	s.dispatch(Reset{})
}

func (s *Service) dispatch(e Event) State {
	s.mu.Lock()
	s.state = Reduce(s.state, e)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.hub.Publish(snap)
	return snap
}

func (s *Service) fail(err error) error {
	s.dispatch(Failed{Err: err})
	return err
}

// Fetch replaces the local list with the server's.
func (s *Service) Fetch(ctx context.Context) error {
	s.dispatch(Started{})
	items, err := s.api.GetCart(ctx)
	if err != nil {
		s.log.Warn(ctx, "cart fetch failed", "err", err)
		return s.fail(err)
	}
	st := s.dispatch(Fetched{Items: items, At: s.now()})
	s.log.Debug(ctx, "cart fetched", "items", len(st.Items))
	return nil
}

// Add puts quantity units of productID into the cart. The server is asked
// first; an existing line for the product is updated in place.
func (s *Service) Add(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return s.fail(ErrItemNotFound)
	}
	if quantity < 1 {
		return s.fail(ErrInvalidQuantity)
	}

	s.dispatch(Started{})
	item, err := s.api.AddCartItem(ctx, productID, quantity)
	if err != nil {
		s.log.Warn(ctx, "add to cart failed", "product_id", productID, "err", err)
		return s.fail(err)
	}
	if item.ProductID == "" {
		item.ProductID = productID
	}
	if item.Quantity < 1 {
		// the server did not echo a usable line
		s.log.Warn(ctx, "add returned no quantity, resyncing", "product_id", productID)
		return s.Fetch(context.WithoutCancel(ctx))
	}

	s.dispatch(ItemAdded{Item: item, At: s.now()})
	s.log.Info(ctx, "added to cart", "product_id", productID, "quantity", item.Quantity)
	return nil
}

// UpdateQuantity changes the quantity of line id by delta. The target is
// clamped to at least 1 and rejected without a remote call when it exceeds
// the known stock. The new quantity shows immediately; if the server
// refuses, that line goes back to the quantity it had before this call.
func (s *Service) UpdateQuantity(ctx context.Context, id string, delta int) error {
	cur, ok := s.State().Item(id)
	if !ok {
		return s.fail(fmt.Errorf("%w: %s", ErrItemNotFound, id))
	}

	target := max(cur.Quantity+delta, 1)
	if cur.Exceeds(target) {
		return s.fail(fmt.Errorf("%w: only %d available", ErrExceedsStock, cur.Stock))
	}
	if target == cur.Quantity {
		return nil
	}

	s.dispatch(QuantitySet{ID: id, Quantity: target})
	item, err := s.api.UpdateCartItem(ctx, cur.ProductID, target)
	if err != nil {
		s.log.Warn(ctx, "quantity update failed, reverting", "product_id", cur.ProductID, "quantity", target, "err", err)
		s.dispatch(QuantityReverted{ID: id, Quantity: cur.Quantity, Err: err})
		return err
	}
	if item.ProductID == "" {
		item.ProductID = cur.ProductID
	}

	s.dispatch(QuantityConfirmed{Item: item, At: s.now()})
	s.log.Debug(ctx, "quantity updated", "product_id", cur.ProductID, "quantity", target)
	return nil
}

// Remove drops line id at once. If the server refuses, the cart is
// resynchronized with a full fetch; if that fetch fails too, the list from
// before the removal is put back.
func (s *Service) Remove(ctx context.Context, id string) error {
	before := s.State()
	cur, ok := before.Item(id)
	if !ok {
		return s.fail(fmt.Errorf("%w: %s", ErrItemNotFound, id))
	}

	s.dispatch(ItemRemoved{ID: id})
	err := s.api.RemoveCartItem(ctx, cur.ProductID)
	if err == nil {
		s.dispatch(RemoveConfirmed{At: s.now()})
		s.log.Info(ctx, "removed from cart", "product_id", cur.ProductID)
		return nil
	}

	s.log.Warn(ctx, "remove failed, resyncing cart", "product_id", cur.ProductID, "err", err)
	items, ferr := s.api.GetCart(context.WithoutCancel(ctx))
	if ferr != nil {
		s.log.Error(ctx, "resync after failed remove failed", "err", ferr)
		s.dispatch(RemoveRolledBack{Items: before.Items, Err: err})
		return err
	}
	s.dispatch(RemoveRolledBack{Items: items, Err: err, Synced: true, At: s.now()})
	return err
}

// Clear empties the cart once the server confirms.
func (s *Service) Clear(ctx context.Context) error {
	s.dispatch(Started{})
	if err := s.api.ClearCart(ctx); err != nil {
		s.log.Warn(ctx, "clear cart failed", "err", err)
		return s.fail(err)
	}
	s.dispatch(Cleared{At: s.now()})
	s.log.Info(ctx, "cart cleared")
	return nil
}
