package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// IdempotencyRepository binds idempotency keys in process memory. Bindings never expire.
type IdempotencyRepository struct {
	mu   sync.Mutex
	keys map[string]uuid.UUID
}

// NewIdempotencyRepository creates an empty repository.
func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{
		keys: make(map[string]uuid.UUID),
	}
}

func (r *IdempotencyRepository) Claim(_ context.Context, key string, orderID uuid.UUID) (uuid.UUID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bound, ok := r.keys[key]; ok {
		return bound, false, nil
	}
	r.keys[key] = orderID

	return orderID, true, nil
}

func (r *IdempotencyRepository) Release(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.keys, key)

	return nil
}
