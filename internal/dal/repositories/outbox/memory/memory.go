package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/corray333/backend-labs/reservation/internal/service/models/outbox"
)

// OutboxRepository is a process-local outbox.
type OutboxRepository struct {
	mu       sync.Mutex
	nextID   int64
	messages map[int64]outbox.OutboxMessage
}

// NewOutboxRepository creates an empty outbox.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		messages: make(map[int64]outbox.OutboxMessage),
	}
}

func (r *OutboxRepository) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	msg.ID = r.nextID
	msg.Payload = append([]byte(nil), msg.Payload...)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.UpdatedAt = msg.CreatedAt
	r.messages[msg.ID] = msg

	return nil
}

func (r *OutboxRepository) GetPendingMessages(_ context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []outbox.OutboxMessage
	for _, msg := range r.messages {
		if !msg.NextRetryAt.After(now) && msg.RetryCount < msg.MaxRetries {
			result = append(result, msg)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NextRetryAt.Before(result[j].NextRetryAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.messages, id)

	return nil
}

func (r *OutboxRepository) UpdateRetry(_ context.Context, msg outbox.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.messages[msg.ID]
	if !ok {
		return nil
	}
	stored.RetryCount = msg.RetryCount
	stored.LastError = msg.LastError
	stored.NextRetryAt = msg.NextRetryAt
	stored.UpdatedAt = time.Now()
	r.messages[msg.ID] = stored

	return nil
}

// Len returns the number of stored messages.
func (r *OutboxRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.messages)
}
