package client

import (
	"testing"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/google/go-cmp/cmp"
)

func TestWireLineItem_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   wireLineItem
		want models.LineItem
	}{
		{
			name: "flat",
			in:   wireLineItem{ID: "l1", ProductID: "p1", Name: "Tea", Price: 100, Quantity: 2, Stock: 4},
			want: models.LineItem{ID: "l1", ProductID: "p1", Name: "Tea", Price: 100, Quantity: 2, Stock: 4},
		},
		{
			name: "embedded product with legacy ids",
			in: wireLineItem{LegacyID: "l2", Quantity: 1,
				Product: &wireProduct{LegacyID: "p2", Name: "Soap", ImageURL: "https://img/2", Price: 50, Stock: 9}},
			want: models.LineItem{ID: "l2", ProductID: "p2", Name: "Soap", ImageURL: "https://img/2", Price: 50, Quantity: 1, Stock: 9},
		},
		{
			name: "line fields win over product",
			in: wireLineItem{ID: "l3", ProductID: "p3", Price: 70, Quantity: 1,
				Product: &wireProduct{ID: "other", Price: 80}},
			want: models.LineItem{ID: "l3", ProductID: "p3", Price: 70, Quantity: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.in.normalize()); diff != "" {
				t.Fatalf("normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeItems_EmptyIsNotNil(t *testing.T) {
	got := normalizeItems(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
