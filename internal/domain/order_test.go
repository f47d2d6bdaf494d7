package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderConfirmed, OrderPreparing, true},
		{OrderPreparing, OrderReady, true},
		{OrderReady, OrderServed, true},
		{OrderServed, OrderCompleted, true},

		// skipping states is not
		{OrderPending, OrderServed, false},
		{OrderPending, OrderPreparing, false},
		{OrderConfirmed, OrderReady, false},
		{OrderPending, OrderCompleted, false},

		// neither is moving backward
		{OrderConfirmed, OrderPending, false},
		{OrderReady, OrderPreparing, false},
		{OrderServed, OrderConfirmed, false},

		// cancel from any non-terminal state
		{OrderPending, OrderCancelled, true},
		{OrderConfirmed, OrderCancelled, true},
		{OrderServed, OrderCancelled, true},

		// terminal states are frozen
		{OrderCompleted, OrderCancelled, false},
		{OrderCompleted, OrderServed, false},
		{OrderCancelled, OrderPending, false},
		{OrderCancelled, OrderCancelled, false},

		// self-transitions are not moves
		{OrderPending, OrderPending, false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRecomputeTotals(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{Quantity: 2, UnitPrice: 100},
			{Quantity: 1, UnitPrice: 50},
		},
	}
	p := Pricing{DiscountRate: 0.10, TaxRate: 0.05}

	o.RecomputeTotals(p)

	require.Equal(t, 250.0, o.SubTotal)
	require.Equal(t, 25.0, o.DiscountAmount)
	require.Equal(t, 11.25, o.TaxAmount)
	require.Equal(t, 0.0, o.DeliveryCharge)
	require.Equal(t, 236.25, o.TotalAmount)
	require.Equal(t, 200.0, o.Items[0].LineTotal)
	require.Equal(t, 50.0, o.Items[1].LineTotal)

	// recomputation is idempotent
	o.RecomputeTotals(p)
	assert.Equal(t, 236.25, o.TotalAmount)

	// the identity holds after any recompute
	assert.Equal(t, o.SubTotal-o.DiscountAmount+o.TaxAmount+o.DeliveryCharge, o.TotalAmount)
}

func TestRecomputeTotalsDeliveryCharge(t *testing.T) {
	o := &Order{Items: []OrderItem{{Quantity: 1, UnitPrice: 80}}}
	o.RecomputeTotals(Pricing{TaxRate: 0.05, DeliveryCharge: 30})
	assert.Equal(t, 80.0+4.0+30.0, o.TotalAmount)
}

func TestItemsEditable(t *testing.T) {
	for _, s := range []OrderStatus{OrderPending, OrderConfirmed} {
		assert.True(t, (&Order{Status: s}).ItemsEditable(), s)
	}
	for _, s := range []OrderStatus{OrderPreparing, OrderReady, OrderServed, OrderCompleted, OrderCancelled} {
		assert.False(t, (&Order{Status: s}).ItemsEditable(), s)
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "validation_error", ErrorKind(Validationf("empty items")))
	assert.Equal(t, "invalid_transition", ErrorKind(InvalidTransitionf("no")))
	assert.Equal(t, "not_found", ErrorKind(NotFoundf("order x")))
	assert.Equal(t, "internal", ErrorKind(assert.AnError))
}
