package cart

import (
	"testing"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func TestState_Derived(t *testing.T) {
	s := State{Items: []models.LineItem{
		{ID: "l1", ProductID: "p1", Price: 100, Quantity: 2},
		{ID: "l2", ProductID: "p2", Price: 250, Quantity: 3},
	}}

	assert.Equal(t, int64(950), s.Subtotal())
	assert.Equal(t, 5, s.Count())

	it, ok := s.Find("p2")
	assert.True(t, ok)
	assert.Equal(t, "l2", it.ID)

	_, ok = s.Find("p3")
	assert.False(t, ok)

	assert.Zero(t, State{}.Subtotal())
}

func TestReduce_DoesNotShareItems(t *testing.T) {
	s := State{Items: []models.LineItem{{ID: "l1", ProductID: "p1", Price: 1, Quantity: 1}}}
	next := Reduce(s, QuantitySet{ID: "l1", Quantity: 4})

	assert.Equal(t, 1, s.Items[0].Quantity)
	assert.Equal(t, 4, next.Items[0].Quantity)
}

func TestReduce_QuantityNeverBelowOne(t *testing.T) {
	s := State{Items: []models.LineItem{{ID: "l1", ProductID: "p1", Quantity: 2}}}
	s = Reduce(s, QuantitySet{ID: "l1", Quantity: 0})
	s = Reduce(s, QuantityConfirmed{Item: models.LineItem{ProductID: "p1", Quantity: 0}})
	s = Reduce(s, ItemAdded{Item: models.LineItem{ProductID: "p1", Quantity: 0}})
	assert.Equal(t, 2, s.Items[0].Quantity)
}

func TestReduce_MergeKeepsLocalFields(t *testing.T) {
	s := State{Items: []models.LineItem{{ID: "l1", ProductID: "p1", Name: "Tea", Price: 100, Quantity: 1, Stock: 4}}}
	s = Reduce(s, ItemAdded{Item: models.LineItem{ProductID: "p1", Price: 90, Quantity: 2}})

	assert.Equal(t, models.LineItem{ID: "l1", ProductID: "p1", Name: "Tea", Price: 90, Quantity: 2, Stock: 4}, s.Items[0])
}
