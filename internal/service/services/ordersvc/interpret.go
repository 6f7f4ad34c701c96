package ordersvc

import (
	"errors"
	"time"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/service/models/reservation"
)

// Decision is the status an order should move to after a reservation call.
type Decision struct {
	Next   order.Status
	Reason *string
	// Retry is set when the order stays in flight for the scheduler.
	Retry bool
}

// Interpret maps the result of a reservation call to the next order state.
// Retryable, degraded and unclassified failures keep the current status and reason.
func Interpret(current *order.Order, outcome reservation.Outcome, err error) Decision {
	if err != nil {
		var callErr *reservation.CallError
		if errors.As(err, &callErr) && !callErr.Retryable {
			reason := order.ReasonReservationFail + ": " + callErr.Detail

			return Decision{Next: order.StatusInvalid, Reason: &reason}
		}

		return stay(current)
	}

	if outcome.Success {
		return Decision{Next: order.StatusPendingPayment}
	}

	if outcome.Degraded {
		return stay(current)
	}

	reason := outcome.Message
	if reason == "" {
		reason = order.ReasonRejected
	}

	return Decision{Next: order.StatusInvalid, Reason: &reason}
}

func stay(current *order.Order) Decision {
	return Decision{Next: current.Status, Reason: current.FailureReason, Retry: true}
}

func (d Decision) apply(o *order.Order, now time.Time) error {
	switch {
	case d.Retry:
		return nil
	case d.Next == order.StatusPendingPayment:
		return o.MarkReserved(now)
	default:
		reason := ""
		if d.Reason != nil {
			reason = *d.Reason
		}

		return o.MarkInvalid(reason, now)
	}
}
