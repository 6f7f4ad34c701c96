package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/ibroker"
	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/reservation/internal/service/models/outbox"
)

// Worker redelivers status events parked in the outbox.
type Worker struct {
	outboxRepo   ioutboxrepo.IOutboxRepository
	broker       ibroker.IBroker
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
	stopCh       chan struct{}
	stopOnce     sync.Once
}

type option func(*Worker)

// WithPollInterval overrides events.outbox.poll_interval_seconds.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPollInterval(d time.Duration) option {
	return func(w *Worker) {
		w.pollInterval = d
	}
}

// WithClock replaces time.Now.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(w *Worker) {
		w.now = now
	}
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	broker ibroker.IBroker,
	opts ...option,
) *Worker {
	pollIntervalSeconds := viper.GetInt("events.outbox.poll_interval_seconds")
	if pollIntervalSeconds <= 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("events.outbox.batch_size")
	if batchSize <= 0 {
		batchSize = 100
	}

	w := &Worker{
		outboxRepo:   outboxRepo,
		broker:       broker,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		now:          time.Now,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins processing messages from the outbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// processMessages retrieves and redelivers due messages.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.outboxRepo.GetPendingMessages(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := w.broker.Send(ctx, msg.Destination, msg.Key, msg.ContentType, msg.Payload)
		if err != nil {
			msg.RetryCount++
			msg.LastError = err.Error()
			msg.NextRetryAt = outbox.NextRetry(w.now(), msg.RetryCount)

			slog.Warn("Failed to publish message from outbox, will retry",
				"outbox_id", msg.ID,
				"retry_count", msg.RetryCount,
				"max_retries", msg.MaxRetries,
				"next_retry", msg.NextRetryAt,
				"error", err,
			)

			if err := w.outboxRepo.UpdateRetry(ctx, msg); err != nil {
				slog.Error("Failed to update retry information", "outbox_id", msg.ID, "error", err)
			}

			continue
		}

		if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from outbox after successful publish",
				"outbox_id", msg.ID,
				"error", err,
			)

			continue
		}

		slog.Info("Message successfully published and removed from outbox", "outbox_id", msg.ID)
	}
}
