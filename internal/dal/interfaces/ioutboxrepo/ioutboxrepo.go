package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/reservation/internal/service/models/outbox"
)

// IOutboxRepository stores events that still have to reach the broker.
type IOutboxRepository interface {
	// Insert parks a message for redelivery
	Insert(ctx context.Context, msg outbox.OutboxMessage) error

	// GetPendingMessages returns messages due at now that still have retries left
	GetPendingMessages(ctx context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error)

	// Delete removes a delivered message
	Delete(ctx context.Context, id int64) error

	// UpdateRetry stores RetryCount, LastError and NextRetryAt of msg
	UpdateRetry(ctx context.Context, msg outbox.OutboxMessage) error
}
