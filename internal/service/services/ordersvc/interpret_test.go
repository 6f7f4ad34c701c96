package ordersvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/service/models/reservation"
)

func TestInterpret(t *testing.T) {
	prior := "earlier note"
	inFlight := &order.Order{Status: order.StatusPendingReservingStock, FailureReason: &prior}

	tests := []struct {
		name       string
		outcome    reservation.Outcome
		err        error
		wantStatus order.Status
		wantReason string
		wantRetry  bool
	}{
		{
			name:       "success",
			outcome:    reservation.Outcome{Success: true},
			wantStatus: order.StatusPendingPayment,
		},
		{
			name:       "denied by service",
			outcome:    reservation.Outcome{Success: false, Message: "insufficient stock for p-1"},
			wantStatus: order.StatusInvalid,
			wantReason: "insufficient stock for p-1",
		},
		{
			name:       "denied without message",
			outcome:    reservation.Outcome{Success: false},
			wantStatus: order.StatusInvalid,
			wantReason: order.ReasonRejected,
		},
		{
			name:       "degraded fallback",
			outcome:    reservation.Outcome{Success: false, Message: "circuit open", Degraded: true},
			wantStatus: order.StatusPendingReservingStock,
			wantReason: prior,
			wantRetry:  true,
		},
		{
			name:       "client fault",
			err:        reservation.NewPermanent(400, "unknown product"),
			wantStatus: order.StatusInvalid,
			wantReason: "stock reservation failed: unknown product",
		},
		{
			name:       "server fault",
			err:        reservation.NewRetryable(503, "unavailable", nil),
			wantStatus: order.StatusPendingReservingStock,
			wantReason: prior,
			wantRetry:  true,
		},
		{
			name:       "unclassified",
			err:        errors.New("surprise"),
			wantStatus: order.StatusPendingReservingStock,
			wantReason: prior,
			wantRetry:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Interpret(inFlight, tt.outcome, tt.err)

			assert.Equal(t, tt.wantStatus, d.Next)
			assert.Equal(t, tt.wantRetry, d.Retry)
			if tt.wantReason == "" {
				assert.Nil(t, d.Reason)
			} else {
				require.NotNil(t, d.Reason)
				assert.Equal(t, tt.wantReason, *d.Reason)
			}
		})
	}
}
