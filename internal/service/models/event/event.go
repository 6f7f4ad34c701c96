package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

// ContentType of serialized events.
const ContentType = "application/json"

// OrderStatusChanged is published after every persisted status change.
type OrderStatusChanged struct {
	EventID    uuid.UUID    `json:"eventId"`
	OrderID    uuid.UUID    `json:"orderId"`
	CustomerID string       `json:"customerId"`
	From       order.Status `json:"from"`
	To         order.Status `json:"to"`
	Reason     string       `json:"reason,omitempty"`
	Attempts   int          `json:"attempts"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// NewOrderStatusChanged describes the move of o from the given status to its current one.
func NewOrderStatusChanged(from order.Status, o *order.Order) OrderStatusChanged {
	return OrderStatusChanged{
		EventID:    uuid.New(),
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		From:       from,
		To:         o.Status,
		Reason:     o.Reason(),
		Attempts:   o.ReservationAttempts,
		OccurredAt: o.UpdatedAt,
	}
}
