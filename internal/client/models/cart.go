package models

// LineItem is one cart entry. ID is assigned by the server; ProductID is the
// catalog item and is unique within a cart. Price is in minor currency units.
type LineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`

	// Stock is the known availability ceiling; zero means unknown.
	Stock int `json:"stock,omitempty"`
}

// Total is Price × Quantity.
func (i LineItem) Total() int64 {
	return i.Price * int64(i.Quantity)
}

// Exceeds reports whether qty is above the known stock ceiling.
func (i LineItem) Exceeds(qty int) bool {
	return i.Stock > 0 && qty > i.Stock
}
