package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	r := NewHandlerRegistry()
	h := newTestHandler()

	r.Register(h, "OrderCreated", "OrderStatusChanged")

	assert.Len(t, r.GetHandlers("OrderCreated"), 1)
	assert.Len(t, r.GetHandlers("OrderStatusChanged"), 1)
	assert.Empty(t, r.GetHandlers("Other"))
}

func TestHandlerRegistry_Wildcard(t *testing.T) {
	r := NewHandlerRegistry()
	typed := newTestHandler()
	all := newTestHandler()

	r.Register(typed, "OrderCreated")
	r.Register(all)

	hs := r.GetHandlers("OrderCreated")
	assert.Len(t, hs, 2)
	assert.Same(t, typed, hs[0])
	assert.Same(t, all, hs[1])
	assert.Len(t, r.GetHandlers("Other"), 1)
}

func TestHandlerRegistry_NoDuplicates(t *testing.T) {
	r := NewHandlerRegistry()
	h := newTestHandler()

	r.Register(h, "OrderCreated")
	r.Register(h, "OrderCreated")
	r.Register(h)

	assert.Len(t, r.GetHandlers("OrderCreated"), 1)
	assert.Equal(t, 1, r.Len())
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	r := NewHandlerRegistry()
	h1 := newTestHandler()
	h2 := newTestHandler()
	r.Register(h1, "OrderCreated")
	r.Register(h2, "OrderCreated")
	r.Register(h1)

	r.Unregister(h1)

	hs := r.GetHandlers("OrderCreated")
	assert.Len(t, hs, 1)
	assert.Same(t, h2, hs[0])
	assert.Equal(t, 1, r.Len())
}
