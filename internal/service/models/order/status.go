package order

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusCreated               Status = "CREATED"
	StatusPendingReservingStock Status = "PENDING_RESERVING_STOCK"
	StatusPendingPayment        Status = "PENDING_PAYMENT"
	StatusInvalid               Status = "INVALID"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusCreated,
	StatusPendingReservingStock,
	StatusPendingPayment,
	StatusInvalid,
}

var transitions = map[Status]map[Status]bool{
	StatusCreated: {
		StatusPendingReservingStock: true,
		StatusInvalid:               true,
	},
	StatusPendingReservingStock: {
		StatusPendingPayment: true,
		StatusInvalid:        true,
	},
	StatusPendingPayment: {},
	StatusInvalid:        {},
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	return transitions[s][next]
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusPendingPayment || s == StatusInvalid
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]

	return ok
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a case-insensitive name into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}

	return status, nil
}
