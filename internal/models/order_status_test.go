package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	for _, s := range AllOrderStatuses {
		got, err := ParseOrderStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
		assert.NotEmpty(t, s.Label())
	}

	_, err := ParseOrderStatus("shipped")
	assert.Error(t, err)
	_, err = ParseOrderStatus("")
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPendingPayment, StatusPaid))
	assert.True(t, CanTransition(StatusPendingPayment, StatusCancelled))
	assert.True(t, CanTransition(StatusPaid, StatusPreparing))
	assert.True(t, CanTransition(StatusPreparing, StatusReady))
	assert.True(t, CanTransition(StatusPreparing, StatusShipped))
	assert.True(t, CanTransition(StatusShipped, StatusInDelivery))
	assert.True(t, CanTransition(StatusInDelivery, StatusDelivered))
	assert.True(t, CanTransition(StatusReady, StatusCollected))

	assert.False(t, CanTransition(StatusPaid, StatusPendingPayment))
	assert.False(t, CanTransition(StatusPaid, StatusPaid))
	assert.False(t, CanTransition(StatusCancelled, StatusPaid))
	assert.False(t, CanTransition(StatusDelivered, StatusCancelled))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCollected.IsTerminal())
	assert.False(t, StatusPendingPayment.IsTerminal())
	assert.False(t, OrderStatus("bogus").IsTerminal())
}
