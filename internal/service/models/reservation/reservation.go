package reservation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

// Request asks the inventory service to reserve stock for an order.
type Request struct {
	OrderID uuid.UUID `json:"orderId"`
	Items   []Item    `json:"items"`
}

// Item is one product line of a Request.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Outcome is the inventory service answer.
// Degraded marks outcomes produced by the fallback instead of the service itself.
type Outcome struct {
	OrderID  uuid.UUID    `json:"orderId"`
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Items    []ItemResult `json:"items"`
	Degraded bool         `json:"-"`
}

// ItemResult reports availability of one product.
type ItemResult struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// NewRequest builds a reservation request from the order lines.
func NewRequest(o *order.Order) Request {
	items := make([]Item, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	return Request{OrderID: o.ID, Items: items}
}

// CallError is a classified failure of the inventory call.
type CallError struct {
	Retryable  bool
	StatusCode int
	Detail     string
	Err        error
}

func (e *CallError) Error() string {
	kind := "non-retryable"
	if e.Retryable {
		kind = "retryable"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("inventory call failed (%s, status %d): %s", kind, e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("inventory call failed (%s): %s", kind, e.Detail)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// NewRetryable classifies err as a transient failure.
func NewRetryable(statusCode int, detail string, err error) *CallError {
	return &CallError{Retryable: true, StatusCode: statusCode, Detail: detail, Err: err}
}

// NewPermanent classifies a client-fault failure.
func NewPermanent(statusCode int, detail string) *CallError {
	return &CallError{StatusCode: statusCode, Detail: detail}
}

// IsRetryable reports whether err should leave the order in flight.
// Errors that are not a CallError count as retryable.
func IsRetryable(err error) bool {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Retryable
	}

	return true
}
