package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
)

// Client represents a RabbitMQ client.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	mu       sync.Mutex
	declared map[string]bool
}

// Close closes the channel and connection for graceful shutdown.
func (r *Client) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}

// MustNewClient creates a new RabbitMQ client.
func MustNewClient() *Client {
	host := viper.GetString("rabbitmq.host")
	if host == "" {
		host = "rabbitmq"
	}

	connStr := fmt.Sprintf(
		"amqp://%s:%s@%s:5672/",
		os.Getenv("RABBITMQ_DEFAULT_USER"),
		os.Getenv("RABBITMQ_DEFAULT_PASS"),
		host,
	)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		err := conn.Close()
		if err != nil {
			panic(fmt.Sprintf("Failed to close a connection: %v", err))
		}
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	slog.Info("RabbitMQ connected")

	return &Client{
		conn:     conn,
		channel:  channel,
		declared: make(map[string]bool),
	}
}

// Send publishes payload to the durable queue named destination through the default exchange.
func (r *Client) Send(ctx context.Context, destination, key, contentType string, payload []byte) error {
	_, span := otel.Tracer("rabbitmq").Start(ctx, "Client.Send")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.declared[destination] {
		if _, err := r.channel.QueueDeclare(destination, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", destination, err)
		}
		r.declared[destination] = true
	}

	err := r.channel.Publish("", destination, false, false, amqp.Publishing{
		ContentType:   contentType,
		DeliveryMode:  amqp.Persistent,
		CorrelationId: key,
		Body:          payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", destination, err)
	}

	return nil
}
