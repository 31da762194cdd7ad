package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversLatest(t *testing.T) {
	var h Hub[int]
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(1)
	h.Publish(2)
	h.Publish(3)

	assert.Equal(t, 3, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %d", v)
	default:
	}
}

func TestHub_FanOut(t *testing.T) {
	var h Hub[string]
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelA()
	defer cancelB()

	h.Publish("x")
	assert.Equal(t, "x", <-a)
	assert.Equal(t, "x", <-b)
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	var h Hub[int]
	ch, cancel := h.Subscribe()
	require.Equal(t, 1, h.Len())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.Len())

	h.Publish(1) // no subscribers, must not panic
}
