package cart

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// Event is an input to Reduce. The set is closed.
type Event interface {
	event()
}

type (
	Started      struct{}
	Failed       struct{ Err error }
	ErrorCleared struct{}
	// Reset empties the cart, e.g. after logout.
	Reset struct{}

	Fetched struct {
		Items []models.LineItem
		At    time.Time
	}
	// ItemAdded merges a server-confirmed line by product.
	ItemAdded struct {
		Item models.LineItem
		At   time.Time
	}
	// QuantitySet is the optimistic half of an update.
	QuantitySet struct {
		ID       string
		Quantity int
	}
	// QuantityConfirmed applies the server's copy of an updated line.
	QuantityConfirmed struct {
		Item models.LineItem
		At   time.Time
	}
	// QuantityReverted puts back the pre-update quantity of one line.
	QuantityReverted struct {
		ID       string
		Quantity int
		Err      error
	}
	// ItemRemoved is the optimistic half of a removal.
	ItemRemoved     struct{ ID string }
	RemoveConfirmed struct{ At time.Time }
	// RemoveRolledBack replaces the list after a failed removal. Synced
	// tells whether Items came from a fresh fetch.
	RemoveRolledBack struct {
		Items  []models.LineItem
		Err    error
		Synced bool
		At     time.Time
	}
	Cleared struct{ At time.Time }
)

func (Started) event()           {}
func (Failed) event()            {}
func (ErrorCleared) event()      {}
func (Reset) event()             {}
func (Fetched) event()           {}
func (ItemAdded) event()         {}
func (QuantitySet) event()       {}
func (QuantityConfirmed) event() {}
func (QuantityReverted) event()  {}
func (ItemRemoved) event()       {}
func (RemoveConfirmed) event()   {}
func (RemoveRolledBack) event()  {}
func (Cleared) event()           {}

// Reduce returns the state that follows s after e. It never mutates s.
func Reduce(s State, e Event) State {
	s = s.Clone()

	switch e := e.(type) {
	case Started:
		s.Loading = true
		s.Err = nil

	case Failed:
		s.Loading = false
		s.Err = e.Err

	case ErrorCleared:
		s.Err = nil

	case Reset:
		s = State{}

	case Fetched:
		s.Loading = false
		s.Items = dedupe(e.Items)
		s.LastSynced = e.At

	case ItemAdded:
		s.Loading = false
		if e.Item.Quantity < 1 {
			break
		}
		if i := s.byProduct(e.Item.ProductID); i >= 0 {
			s.Items[i] = merge(s.Items[i], e.Item)
		} else {
			s.Items = append(s.Items, e.Item)
		}
		s.LastSynced = e.At

	case QuantitySet:
		s.Loading = true
		s.Err = nil
		if i := s.byID(e.ID); i >= 0 && e.Quantity > 0 {
			s.Items[i].Quantity = e.Quantity
		}

	case QuantityConfirmed:
		s.Loading = false
		if i := s.byProduct(e.Item.ProductID); i >= 0 && e.Item.Quantity > 0 {
			s.Items[i] = merge(s.Items[i], e.Item)
		}
		s.LastSynced = e.At

	case QuantityReverted:
		s.Loading = false
		s.Err = e.Err
		if i := s.byID(e.ID); i >= 0 && e.Quantity > 0 {
			s.Items[i].Quantity = e.Quantity
		}

	case ItemRemoved:
		s.Loading = true
		s.Err = nil
		if i := s.byID(e.ID); i >= 0 {
			s.Items = slices.Delete(s.Items, i, i+1)
		}

	case RemoveConfirmed:
		s.Loading = false
		s.LastSynced = e.At

	case RemoveRolledBack:
		s.Loading = false
		s.Err = e.Err
		s.Items = dedupe(e.Items)
		if e.Synced {
			s.LastSynced = e.At
		}

	case Cleared:
		s.Loading = false
		s.Items = nil
		s.LastSynced = e.At
	}

	return s
}

// merge applies server fields of upd onto cur. Empty server fields keep the
// local value.
func merge(cur, upd models.LineItem) models.LineItem {
	if upd.ID != "" {
		cur.ID = upd.ID
	}
	if upd.Name != "" {
		cur.Name = upd.Name
	}
	if upd.ImageURL != "" {
		cur.ImageURL = upd.ImageURL
	}
	if upd.Stock != 0 {
		cur.Stock = upd.Stock
	}
	cur.Price = upd.Price
	cur.Quantity = upd.Quantity
	return cur
}

// dedupe keeps the first line of every product and drops lines without a
// positive quantity.
func dedupe(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		out = append(out, it)
	}
	return out
}
