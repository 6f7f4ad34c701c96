package outbox

import (
	"math"
	"time"
)

// OutboxMessage is an event that could not be handed to the broker and waits for redelivery.
type OutboxMessage struct {
	ID          int64
	Destination string
	Key         string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}

// NextRetry returns when attempt number retryCount may run: 30s, 60s, 120s and so on.
func NextRetry(now time.Time, retryCount int) time.Time {
	backoffSeconds := math.Pow(2, float64(retryCount)) * 30

	return now.Add(time.Duration(backoffSeconds) * time.Second)
}
