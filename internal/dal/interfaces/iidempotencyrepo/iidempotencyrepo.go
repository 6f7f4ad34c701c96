package iidempotencyrepo

import (
	"context"

	"github.com/google/uuid"
)

// IIdempotencyRepository maps client idempotency keys to created orders.
type IIdempotencyRepository interface {
	// Claim binds key to orderID unless it is already bound.
	// It returns the bound order id and whether this call made the binding.
	Claim(ctx context.Context, key string, orderID uuid.UUID) (uuid.UUID, bool, error)

	// Release drops the binding of key
	Release(ctx context.Context, key string) error
}
