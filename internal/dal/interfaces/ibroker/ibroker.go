package ibroker

import "context"

// IBroker sends a serialized event to a destination (RabbitMQ queue or Kafka topic).
type IBroker interface {
	Send(ctx context.Context, destination, key, contentType string, payload []byte) error
}
