package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInvalidItem        = errors.New("invalid order item")
	ErrUnknownStatus      = errors.New("unknown order status")
	ErrPolicyExhausted    = errors.New("reservation policy exhausted")
	ErrCreationInProgress = errors.New("order creation in progress")
)

const (
	ReasonMaxAttempts     = "maximum reservation attempts reached"
	ReasonMaxRetryAge     = "exceeded maximum retry time for stock reservation"
	ReasonReservationFail = "stock reservation failed"
	ReasonRejected        = "stock reservation rejected"
)

// Order is the unit of work advanced through the reservation workflow.
type Order struct {
	ID                     uuid.UUID       `json:"id"`
	CustomerID             string          `json:"customerId"`
	Items                  []Item          `json:"items"`
	TotalAmount            decimal.Decimal `json:"totalAmount"`
	Status                 Status          `json:"status"`
	FailureReason          *string         `json:"failureReason,omitempty"`
	ReservationAttempts    int             `json:"reservationAttempts"`
	LastReservationAttempt *time.Time      `json:"lastReservationAttempt,omitempty"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// Item is a single order line.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Subtotal returns quantity × unit price.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewItem validates and builds an order line.
func NewItem(productID, productName string, quantity int, unitPrice decimal.Decimal) (Item, error) {
	if productID == "" {
		return Item{}, fmt.Errorf("%w: product id is required", ErrInvalidItem)
	}
	if quantity < 1 {
		return Item{}, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidItem, quantity)
	}
	if unitPrice.IsNegative() {
		return Item{}, fmt.Errorf("%w: unit price must not be negative", ErrInvalidItem)
	}
	if productName == "" {
		productName = "Product " + productID
	}

	return Item{
		ID:          uuid.New(),
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}, nil
}

// New creates an order in CREATED with a total derived from items.
func New(customerID string, items []Item, now time.Time) (*Order, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrInvalidItem)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidItem)
	}

	o := &Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Items:      append([]Item(nil), items...),
		Status:     StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.TotalAmount = Total(o.Items)

	return o, nil
}

// Total sums the subtotals of items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	return total
}

// IsTerminal reports whether the order can no longer change status.
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// Reason returns the failure reason or an empty string.
func (o *Order) Reason() string {
	if o.FailureReason == nil {
		return ""
	}

	return *o.FailureReason
}

// BeginReservationAttempt moves the order into PENDING_RESERVING_STOCK and
// records the attempt before any external call is made.
func (o *Order) BeginReservationAttempt(now time.Time) error {
	if o.Status != StatusPendingReservingStock {
		if err := o.transition(StatusPendingReservingStock); err != nil {
			return err
		}
	}

	o.ReservationAttempts++
	at := now
	o.LastReservationAttempt = &at
	o.UpdatedAt = now

	return nil
}

// MarkReserved moves the order to PENDING_PAYMENT and clears the failure reason.
func (o *Order) MarkReserved(now time.Time) error {
	if err := o.transition(StatusPendingPayment); err != nil {
		return err
	}

	o.FailureReason = nil
	o.UpdatedAt = now

	return nil
}

// MarkInvalid moves the order to INVALID with a non-empty reason.
func (o *Order) MarkInvalid(reason string, now time.Time) error {
	if err := o.transition(StatusInvalid); err != nil {
		return err
	}

	if reason == "" {
		reason = ReasonRejected
	}
	o.FailureReason = &reason
	o.UpdatedAt = now

	return nil
}

// SetStatus applies an administrative status change.
// An empty reason keeps the current one, except INVALID always ends up with a reason.
func (o *Order) SetStatus(status Status, reason string, now time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	switch status {
	case StatusInvalid:
		if reason == "" {
			reason = o.Reason()
		}

		return o.MarkInvalid(reason, now)
	case StatusPendingPayment:
		return o.MarkReserved(now)
	}

	if err := o.transition(status); err != nil {
		return err
	}
	if reason != "" {
		o.FailureReason = &reason
	}
	o.UpdatedAt = now

	return nil
}

func (o *Order) transition(to Status) error {
	if !o.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to

	return nil
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}

	c := *o
	c.Items = append([]Item(nil), o.Items...)
	if o.FailureReason != nil {
		reason := *o.FailureReason
		c.FailureReason = &reason
	}
	if o.LastReservationAttempt != nil {
		at := *o.LastReservationAttempt
		c.LastReservationAttempt = &at
	}

	return &c
}
