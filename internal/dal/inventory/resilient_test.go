package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/reservation/internal/config"
	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/service/models/reservation"
)

type scriptedReserver struct {
	calls atomic.Int32
	fn    func(ctx context.Context, call int) (reservation.Outcome, error)
}

func (s *scriptedReserver) Reserve(ctx context.Context, _ reservation.Request) (reservation.Outcome, error) {
	n := int(s.calls.Add(1))

	return s.fn(ctx, n)
}

func fastResilience() config.Resilience {
	cfg := config.DefaultResilience()
	cfg.RetryBaseBackoff = time.Millisecond
	cfg.RetryMaxBackoff = 2 * time.Millisecond
	cfg.BreakerMinRequests = 100

	return cfg
}

func testOrder(t *testing.T) *order.Order {
	t.Helper()

	item, err := order.NewItem("p-1", "", 1, decimal.NewFromInt(5))
	require.NoError(t, err)
	o, err := order.New("c-1", []order.Item{item}, time.Now())
	require.NoError(t, err)

	return o
}

func TestResilient_Success(t *testing.T) {
	inner := &scriptedReserver{fn: func(context.Context, int) (reservation.Outcome, error) {
		return reservation.Outcome{Success: true, Message: "ok"}, nil
	}}
	r := NewResilient(inner, fastResilience(), time.Second)

	out, err := r.Reserve(context.Background(), testOrder(t))

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestResilient_RetriesTransientThenSucceeds(t *testing.T) {
	inner := &scriptedReserver{fn: func(_ context.Context, call int) (reservation.Outcome, error) {
		if call < 3 {
			return reservation.Outcome{}, reservation.NewRetryable(503, "unavailable", nil)
		}

		return reservation.Outcome{Success: true}, nil
	}}
	r := NewResilient(inner, fastResilience(), time.Second)

	out, err := r.Reserve(context.Background(), testOrder(t))

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestResilient_ExhaustedRetriesFallBack(t *testing.T) {
	inner := &scriptedReserver{fn: func(context.Context, int) (reservation.Outcome, error) {
		return reservation.Outcome{}, reservation.NewRetryable(500, "boom", nil)
	}}
	o := testOrder(t)
	r := NewResilient(inner, fastResilience(), time.Second)

	out, err := r.Reserve(context.Background(), o)

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.True(t, out.Degraded)
	assert.Equal(t, o.ID, out.OrderID)
	assert.Contains(t, out.Message, fallbackMessage)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestResilient_ClientFaultIsNotRetried(t *testing.T) {
	inner := &scriptedReserver{fn: func(context.Context, int) (reservation.Outcome, error) {
		return reservation.Outcome{}, reservation.NewPermanent(400, "bad product")
	}}
	r := NewResilient(inner, fastResilience(), time.Second)

	_, err := r.Reserve(context.Background(), testOrder(t))

	var callErr *reservation.CallError
	require.ErrorAs(t, err, &callErr)
	assert.False(t, callErr.Retryable)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestResilient_UnclassifiedErrorIsRetried(t *testing.T) {
	inner := &scriptedReserver{fn: func(context.Context, int) (reservation.Outcome, error) {
		return reservation.Outcome{}, errors.New("unexpected")
	}}
	r := NewResilient(inner, fastResilience(), time.Second)

	out, err := r.Reserve(context.Background(), testOrder(t))

	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestResilient_PerCallTimeout(t *testing.T) {
	inner := &scriptedReserver{fn: func(ctx context.Context, _ int) (reservation.Outcome, error) {
		<-ctx.Done()

		return reservation.Outcome{}, reservation.NewRetryable(0, "timeout", ctx.Err())
	}}
	cfg := fastResilience()
	cfg.RetryMaxAttempts = 1
	r := NewResilient(inner, cfg, 20*time.Millisecond)

	start := time.Now()
	out, err := r.Reserve(context.Background(), testOrder(t))

	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResilient_OpenBreakerShortCircuits(t *testing.T) {
	inner := &scriptedReserver{fn: func(context.Context, int) (reservation.Outcome, error) {
		return reservation.Outcome{}, reservation.NewRetryable(503, "down", nil)
	}}
	cfg := fastResilience()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute

	var mu sync.Mutex
	var states []bool
	r := NewResilient(inner, cfg, time.Second, WithStateListener(func(open bool) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, open)
	}))

	for range 2 {
		_, err := r.Reserve(context.Background(), testOrder(t))
		require.NoError(t, err)
	}
	require.True(t, r.Open())
	require.Equal(t, int32(2), inner.calls.Load())

	out, err := r.Reserve(context.Background(), testOrder(t))

	require.NoError(t, err)
	assert.True(t, out.Degraded)
	assert.False(t, out.Success)
	assert.Equal(t, int32(2), inner.calls.Load(), "open breaker must not reach the service")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true}, states)
}

func TestResilient_ClientFaultsDoNotTripBreaker(t *testing.T) {
	inner := &scriptedReserver{fn: func(context.Context, int) (reservation.Outcome, error) {
		return reservation.Outcome{}, reservation.NewPermanent(422, "nope")
	}}
	cfg := fastResilience()
	cfg.BreakerMinRequests = 2

	r := NewResilient(inner, cfg, time.Second)
	for range 5 {
		_, err := r.Reserve(context.Background(), testOrder(t))
		require.Error(t, err)
	}

	assert.False(t, r.Open())
	assert.Equal(t, int32(5), inner.calls.Load())
}

func TestResilient_ZeroSettingsUseDefaults(t *testing.T) {
	inner := &scriptedReserver{fn: func(ctx context.Context, _ int) (reservation.Outcome, error) {
		if err := ctx.Err(); err != nil {
			return reservation.Outcome{}, reservation.NewRetryable(0, "timeout", err)
		}

		return reservation.Outcome{Success: true}, nil
	}}

	r := NewResilient(inner, config.Resilience{}, 0)

	assert.Equal(t, config.DefaultResilience(), r.cfg)
	assert.Equal(t, config.DefaultReservation().CallTimeout, r.callTimeout)

	out, err := r.Reserve(context.Background(), testOrder(t))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, int32(1), inner.calls.Load())
}
