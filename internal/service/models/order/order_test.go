package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustItem(t *testing.T, productID string, qty int, price string) Item {
	t.Helper()

	item, err := NewItem(productID, "", qty, decimal.RequireFromString(price))
	require.NoError(t, err)

	return item
}

func TestNew_TotalEqualsSumOfSubtotals(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	items := []Item{
		mustItem(t, "p-1", 2, "10.50"),
		mustItem(t, "p-2", 3, "0.10"),
		mustItem(t, "p-3", 1, "0"),
	}

	o, err := New("c-1", items, now)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("21.30").Equal(o.TotalAmount), o.TotalAmount.String())
	assert.Equal(t, StatusCreated, o.Status)
	assert.Zero(t, o.ReservationAttempts)
	assert.Nil(t, o.LastReservationAttempt)
	assert.Nil(t, o.FailureReason)
	assert.Equal(t, now, o.CreatedAt)
	assert.Equal(t, "Product p-1", o.Items[0].ProductName)
}

func TestNewItem_Validation(t *testing.T) {
	_, err := NewItem("", "", 1, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewItem("p", "", 0, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = NewItem("p", "", 1, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = New("c", nil, time.Now())
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestBeginReservationAttempt(t *testing.T) {
	now := time.Now()
	o, err := New("c-1", []Item{mustItem(t, "p", 1, "1")}, now)
	require.NoError(t, err)

	require.NoError(t, o.BeginReservationAttempt(now.Add(time.Second)))
	assert.Equal(t, StatusPendingReservingStock, o.Status)
	assert.Equal(t, 1, o.ReservationAttempts)
	require.NotNil(t, o.LastReservationAttempt)
	assert.Equal(t, now.Add(time.Second), *o.LastReservationAttempt)

	require.NoError(t, o.BeginReservationAttempt(now.Add(2*time.Second)))
	assert.Equal(t, 2, o.ReservationAttempts)
	assert.Equal(t, now.Add(2*time.Second), o.UpdatedAt)
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	now := time.Now()
	o, err := New("c-1", []Item{mustItem(t, "p", 1, "1")}, now)
	require.NoError(t, err)
	require.NoError(t, o.BeginReservationAttempt(now))
	require.NoError(t, o.MarkReserved(now))
	assert.True(t, o.IsTerminal())

	require.ErrorIs(t, o.BeginReservationAttempt(now), ErrInvalidTransition)
	require.ErrorIs(t, o.MarkInvalid("late", now), ErrInvalidTransition)
	assert.Equal(t, StatusPendingPayment, o.Status)
	assert.Equal(t, 1, o.ReservationAttempts)

	for _, to := range Statuses {
		assert.False(t, StatusInvalid.CanTransition(to), "INVALID -> %s", to)
		assert.False(t, StatusPendingPayment.CanTransition(to), "PENDING_PAYMENT -> %s", to)
	}
}

func TestMarkInvalid_AlwaysCarriesReason(t *testing.T) {
	now := time.Now()
	o, err := New("c-1", []Item{mustItem(t, "p", 1, "1")}, now)
	require.NoError(t, err)
	require.NoError(t, o.BeginReservationAttempt(now))

	require.NoError(t, o.MarkInvalid("", now))
	assert.Equal(t, StatusInvalid, o.Status)
	assert.Equal(t, ReasonRejected, o.Reason())
}

func TestMarkReserved_ClearsReason(t *testing.T) {
	now := time.Now()
	reason := "previous"
	o := &Order{Status: StatusPendingReservingStock, FailureReason: &reason}

	require.NoError(t, o.MarkReserved(now))
	assert.Nil(t, o.FailureReason)
}

func TestSetStatus(t *testing.T) {
	now := time.Now()
	o, err := New("c-1", []Item{mustItem(t, "p", 1, "1")}, now)
	require.NoError(t, err)

	require.ErrorIs(t, o.SetStatus(Status("SHIPPED"), "", now), ErrUnknownStatus)
	require.ErrorIs(t, o.SetStatus(StatusPendingPayment, "", now), ErrInvalidTransition)

	require.NoError(t, o.SetStatus(StatusPendingReservingStock, "", now))
	require.NoError(t, o.SetStatus(StatusInvalid, "manual", now))
	assert.Equal(t, "manual", o.Reason())
}

func TestClone_IsDeep(t *testing.T) {
	now := time.Now()
	o, err := New("c-1", []Item{mustItem(t, "p", 1, "1")}, now)
	require.NoError(t, err)
	require.NoError(t, o.BeginReservationAttempt(now))
	require.NoError(t, o.MarkInvalid("x", now))

	c := o.Clone()
	*c.FailureReason = "y"
	*c.LastReservationAttempt = now.Add(time.Hour)
	c.Items[0].Quantity = 99

	assert.Equal(t, "x", o.Reason())
	assert.Equal(t, now, *o.LastReservationAttempt)
	assert.Equal(t, 1, o.Items[0].Quantity)
}

func TestNewSummary_ZeroFilled(t *testing.T) {
	s := NewSummary()
	assert.Len(t, s, 4)
	for _, status := range Statuses {
		v, ok := s[status]
		assert.True(t, ok)
		assert.Zero(t, v)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("pending_payment")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, s)

	_, err = ParseStatus("SHIPPED")
	require.ErrorIs(t, err, ErrUnknownStatus)
}
