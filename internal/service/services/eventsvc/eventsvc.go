package eventsvc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/ibroker"
	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/reservation/internal/service/models/event"
	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/service/models/outbox"
)

const (
	defaultDestination    = "orders.status.changed"
	defaultPublishTimeout = time.Second
)

// EventService publishes order status changes and parks undelivered ones in the outbox.
type EventService struct {
	broker      ibroker.IBroker
	outboxRepo  ioutboxrepo.IOutboxRepository
	destination    string
	maxRetries     int
	publishTimeout time.Duration
	now            func() time.Time
}

type option func(*EventService)

// MustNewEventService creates a new EventService.
func MustNewEventService(opts ...option) *EventService {
	s := &EventService{
		destination:    defaultDestination,
		maxRetries:     5,
		publishTimeout: defaultPublishTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithBroker sets the broker events are sent to.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBroker(broker ibroker.IBroker) option {
	return func(s *EventService) {
		s.broker = broker
	}
}

// WithOutboxRepository sets the outbox used when the broker rejects a message.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOutboxRepository(repo ioutboxrepo.IOutboxRepository) option {
	return func(s *EventService) {
		s.outboxRepo = repo
	}
}

// WithDestination sets the queue or topic name.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDestination(destination string) option {
	return func(s *EventService) {
		if destination != "" {
			s.destination = destination
		}
	}
}

// WithMaxRetries sets how many redeliveries an outbox message gets.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMaxRetries(n int) option {
	return func(s *EventService) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithPublishTimeout bounds a single broker send.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPublishTimeout(d time.Duration) option {
	return func(s *EventService) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// OrderStatusChanged emits an event for the move of o from status from.
// The send is bounded by the publish timeout. Failures go to the outbox and are never returned.
func (s *EventService) OrderStatusChanged(ctx context.Context, from order.Status, o *order.Order) {
	if s.broker == nil {
		return
	}

	ctx, span := otel.Tracer("service").Start(ctx, "EventService.OrderStatusChanged")
	defer span.End()

	payload, err := json.Marshal(event.NewOrderStatusChanged(from, o))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal order status event", "order_id", o.ID, "error", err)

		return
	}

	key := o.ID.String()
	sendCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	sendErr := s.broker.Send(sendCtx, s.destination, key, event.ContentType, payload)
	cancel()
	if sendErr == nil {
		return
	}

	slog.WarnContext(ctx, "Failed to publish order status event, storing in outbox",
		"order_id", o.ID,
		"error", sendErr,
	)

	if s.outboxRepo == nil {
		return
	}

	now := s.now()
	err = s.outboxRepo.Insert(ctx, outbox.OutboxMessage{
		Destination: s.destination,
		Key:         key,
		Payload:     payload,
		ContentType: event.ContentType,
		MaxRetries:  s.maxRetries,
		LastError:   sendErr.Error(),
		CreatedAt:   now,
		NextRetryAt: outbox.NextRetry(now, 0),
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to store order status event in outbox", "order_id", o.ID, "error", err)
	}
}
