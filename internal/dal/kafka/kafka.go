package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

// Client writes events to Kafka; the topic is chosen per message.
type Client struct {
	w *kafka.Writer
}

// NewClient creates a client for brokers.
func NewClient(brokers []string) *Client {
	return &Client{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

// MustNewClient creates a client from kafka.brokers.
func MustNewClient() *Client {
	brokers := viper.GetStringSlice("kafka.brokers")
	if len(brokers) == 0 {
		panic("kafka.brokers is not set in config")
	}

	slog.Info("Kafka writer configured", "brokers", brokers)

	return NewClient(brokers)
}

// Send writes payload to topic destination keyed by key.
func (c *Client) Send(ctx context.Context, destination, key, contentType string, payload []byte) error {
	ctx, span := otel.Tracer("kafka").Start(ctx, "Client.Send")
	defer span.End()

	err := c.w.WriteMessages(ctx, kafka.Message{
		Topic: destination,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(contentType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write to topic %s: %w", destination, err)
	}

	return nil
}

// Close flushes pending writes.
func (c *Client) Close() error {
	return c.w.Close()
}
