package order

import (
	"errors"
	"testing"

	"github.com/bignstrong/RailGuard/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(id string, price float64, qty int) Item {
	return Item{
		ID:       id,
		Title:    "Фильтр " + id,
		Price:    decimal.NewFromFloat(price),
		Quantity: qty,
		Image:    "/images/filter.png",
	}
}

func testContact() Contact {
	return Contact{Phone: "+7 (999) 123-45-67", PreferredContact: ContactPhone}
}

func TestNewOrder(t *testing.T) {
	t.Run("accepts matching total", func(t *testing.T) {
		o, err := NewOrder([]Item{testItem("a", 100, 2)}, testContact(), decimal.NewFromInt(200))
		require.NoError(t, err)

		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", o.ID.String())
		assert.Equal(t, StatusPending, o.Status)
		assert.False(t, o.CreatedAt.IsZero())
		assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, 2, o.TotalQuantity())
	})

	t.Run("rejects tampered total", func(t *testing.T) {
		_, err := NewOrder([]Item{testItem("a", 100, 2)}, testContact(), decimal.NewFromInt(199))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPriceMismatch))

		var pm *PriceMismatchError
		require.True(t, errors.As(err, &pm))
		assert.True(t, pm.Calculated.Equal(decimal.NewFromInt(200)))
	})

	t.Run("tolerates rounding within one cent", func(t *testing.T) {
		items := []Item{testItem("a", 0.1, 3), testItem("b", 0.2, 1)}
		_, err := NewOrder(items, testContact(), decimal.NewFromFloat(0.509))
		assert.NoError(t, err)

		_, err = NewOrder(items, testContact(), decimal.NewFromFloat(0.52))
		assert.ErrorIs(t, err, ErrPriceMismatch)
	})

	t.Run("rejects empty items", func(t *testing.T) {
		_, err := NewOrder(nil, testContact(), decimal.NewFromInt(1))
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "items", ve.Details[0].Field)
	})

	t.Run("collects every invalid field", func(t *testing.T) {
		items := []Item{testItem("a", 0, 0)}
		contact := Contact{Phone: "+7 (999) 123-45-67", PreferredContact: "email"}
		_, err := NewOrder(items, contact, decimal.Zero)

		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Len(t, ve.Details, 4)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("snapshots items", func(t *testing.T) {
		items := []Item{testItem("a", 100, 1)}
		o, err := NewOrder(items, testContact(), decimal.NewFromInt(100))
		require.NoError(t, err)

		items[0].Quantity = 5
		items[0].Title = "changed"
		assert.Equal(t, 1, o.Items[0].Quantity)
		assert.Equal(t, "Фильтр a", o.Items[0].Title)
	})

	t.Run("records created event", func(t *testing.T) {
		o, err := NewOrder([]Item{testItem("a", 100, 1)}, testContact(), decimal.NewFromInt(100))
		require.NoError(t, err)

		events := o.PullEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeOrderCreated, events[0].EventType())
		assert.Equal(t, o.ID, events[0].AggregateID())
		assert.Empty(t, o.PullEvents())
	})
}

func TestCalculateTotal(t *testing.T) {
	items := []Item{testItem("a", 8500, 2), testItem("b", 1250.5, 1)}
	assert.Equal(t, "18250.5", CalculateTotal(items).String())
	assert.True(t, CalculateTotal(nil).IsZero())
}

func TestOrder_ChangeStatus(t *testing.T) {
	newOrder := func(t *testing.T) *Order {
		o, err := NewOrder([]Item{testItem("a", 100, 1)}, testContact(), decimal.NewFromInt(100))
		require.NoError(t, err)
		o.PullEvents()
		return o
	}

	t.Run("free policy is last write wins", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.ChangeStatus(StatusCompleted, StatusPolicyFree))
		require.NoError(t, o.ChangeStatus(StatusProcessing, StatusPolicyFree))
		assert.Equal(t, StatusProcessing, o.Status)
		assert.Equal(t, 3, o.Version)
		assert.Len(t, o.PullEvents(), 2)
	})

	t.Run("strict policy rejects leaving a terminal state", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.ChangeStatus(StatusCancelled, StatusPolicyStrict))
		err := o.ChangeStatus(StatusProcessing, StatusPolicyStrict)
		assert.ErrorIs(t, err, ErrTransitionDenied)
		assert.Equal(t, StatusCancelled, o.Status)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.ChangeStatus(StatusPending, StatusPolicyStrict))
		assert.Equal(t, 1, o.Version)
		assert.Empty(t, o.PullEvents())
	})
}
