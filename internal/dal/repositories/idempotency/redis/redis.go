package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/corray333/backend-labs/reservation/internal/dal/redis"
)

const (
	keyIdemOrderCreate = "idem:order:create:%s"
	ttlIdempotency     = 24 * time.Hour
)

// IdempotencyRepository stores idempotency keys in Redis with a 24h TTL.
type IdempotencyRepository struct {
	client *redis.Client
}

// NewIdempotencyRepository creates a new idempotency repository.
func NewIdempotencyRepository(client *redis.Client) *IdempotencyRepository {
	return &IdempotencyRepository{
		client: client,
	}
}

// Claim binds key to orderID with SETNX, or returns the order already bound.
func (r *IdempotencyRepository) Claim(ctx context.Context, key string, orderID uuid.UUID) (uuid.UUID, bool, error) {
	redisKey := fmt.Sprintf(keyIdemOrderCreate, key)

	ok, err := r.client.Redis().SetNX(ctx, redisKey, orderID.String(), ttlIdempotency).Result()
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if ok {
		return orderID, true, nil
	}

	existing, err := r.client.Redis().Get(ctx, redisKey).Result()
	if errors.Is(err, goredis.Nil) {
		return r.Claim(ctx, key, orderID)
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	id, err := uuid.Parse(existing)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to parse stored order id %q: %w", existing, err)
	}

	return id, false, nil
}

// Release deletes the key so a later request can retry creation.
func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	if err := r.client.Redis().Del(ctx, fmt.Sprintf(keyIdemOrderCreate, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}

	return nil
}
