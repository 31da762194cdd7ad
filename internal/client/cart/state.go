package cart

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// State is a snapshot of the cart.
type State struct {
	Items   []models.LineItem
	Loading bool
	Err     error
	// LastSynced is when the server last confirmed the contents.
	LastSynced time.Time
}

// Clone returns a snapshot that shares no memory with s.
func (s State) Clone() State {
	s.Items = slices.Clone(s.Items)
	return s
}

// Subtotal is Σ price × quantity, in minor currency units.
func (s State) Subtotal() int64 {
	var sum int64
	for _, it := range s.Items {
		sum += it.Total()
	}
	return sum
}

// Count is the total number of units.
func (s State) Count() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Find returns the line for productID.
func (s State) Find(productID string) (models.LineItem, bool) {
	if i := s.byProduct(productID); i >= 0 {
		return s.Items[i], true
	}
	return models.LineItem{}, false
}

// Item returns the line with line-item id.
func (s State) Item(id string) (models.LineItem, bool) {
	if i := s.byID(id); i >= 0 {
		return s.Items[i], true
	}
	return models.LineItem{}, false
}

func (s State) byID(id string) int {
	return slices.IndexFunc(s.Items, func(it models.LineItem) bool { return it.ID == id })
}

func (s State) byProduct(productID string) int {
	return slices.IndexFunc(s.Items, func(it models.LineItem) bool { return it.ProductID == productID })
}
