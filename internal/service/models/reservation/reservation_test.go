package reservation

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

func TestNewRequest(t *testing.T) {
	a, err := order.NewItem("p-1", "", 2, decimal.NewFromInt(3))
	require.NoError(t, err)
	b, err := order.NewItem("p-2", "", 1, decimal.NewFromInt(1))
	require.NoError(t, err)
	o, err := order.New("c-1", []order.Item{a, b}, time.Now())
	require.NoError(t, err)

	req := NewRequest(o)

	assert.Equal(t, o.ID, req.OrderID)
	assert.Equal(t, []Item{{ProductID: "p-1", Quantity: 2}, {ProductID: "p-2", Quantity: 1}}, req.Items)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryable(503, "unavailable", nil)))
	assert.False(t, IsRetryable(NewPermanent(400, "bad request")))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", NewPermanent(422, "no"))))
	assert.True(t, IsRetryable(errors.New("boom")))
}

func TestCallError_Error(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewRetryable(0, "connection refused", cause)

	assert.Equal(t, "inventory call failed (retryable): connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "inventory call failed (non-retryable, status 400): bad", NewPermanent(400, "bad").Error())
}
