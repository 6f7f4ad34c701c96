package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/reservation/internal/config"
	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/ibroker"
	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/iidempotencyrepo"
	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/reservation/internal/dal/inventory"
	"github.com/corray333/backend-labs/reservation/internal/dal/kafka"
	"github.com/corray333/backend-labs/reservation/internal/dal/postgres"
	"github.com/corray333/backend-labs/reservation/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/reservation/internal/dal/redis"
	idemmemory "github.com/corray333/backend-labs/reservation/internal/dal/repositories/idempotency/memory"
	idemredis "github.com/corray333/backend-labs/reservation/internal/dal/repositories/idempotency/redis"
	ordermemory "github.com/corray333/backend-labs/reservation/internal/dal/repositories/order/memory"
	orderpostgres "github.com/corray333/backend-labs/reservation/internal/dal/repositories/order/postgres"
	outboxmemory "github.com/corray333/backend-labs/reservation/internal/dal/repositories/outbox/memory"
	outboxpostgres "github.com/corray333/backend-labs/reservation/internal/dal/repositories/outbox/postgres"
	"github.com/corray333/backend-labs/reservation/internal/service/services/eventsvc"
	"github.com/corray333/backend-labs/reservation/internal/service/services/ordersvc"
)

// closer releases an external resource on shutdown.
type closer struct {
	name  string
	close func() error
}

// core holds the components shared by the server and the one-shot sweep.
type core struct {
	cfg        config.Reservation
	orderRepo  iorderrepo.IOrderRepository
	outboxRepo ioutboxrepo.IOutboxRepository
	broker     ibroker.IBroker
	inventory  *inventory.Resilient
	orderSvc   *ordersvc.OrderService
	closers    []closer
}

// mustNewCore wires storage, messaging, the resilient inventory client and the order service.
// breakerListener may be nil.
func mustNewCore(breakerListener func(open bool)) *core {
	c := &core{
		cfg: config.LoadReservation(),
	}

	c.mustInitStorage()
	c.mustInitBroker()
	idempotency := c.mustInitIdempotency()

	c.inventory = inventory.NewResilient(
		inventory.MustNewClient(),
		config.LoadResilience(),
		c.cfg.CallTimeout,
		inventory.WithStateListener(breakerListener),
	)

	events := eventsvc.MustNewEventService(
		eventsvc.WithBroker(c.broker),
		eventsvc.WithOutboxRepository(c.outboxRepo),
		eventsvc.WithDestination(viper.GetString("events.destination")),
		eventsvc.WithMaxRetries(viper.GetInt("events.outbox.max_retries")),
		eventsvc.WithPublishTimeout(time.Duration(viper.GetInt("events.publish_timeout_ms"))*time.Millisecond),
	)

	c.orderSvc = ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(c.orderRepo),
		ordersvc.WithIdempotencyRepository(idempotency),
		ordersvc.WithInventory(c.inventory),
		ordersvc.WithEventPublisher(events),
		ordersvc.WithReservationConfig(c.cfg),
	)

	return c
}

func (c *core) mustInitStorage() {
	switch driver := viper.GetString("storage.driver"); driver {
	case "", "postgres":
		client := postgres.MustNewClient()
		c.orderRepo = orderpostgres.NewOrderRepository(client)
		c.outboxRepo = outboxpostgres.NewOutboxRepository(client)
		c.closers = append(c.closers, closer{name: "postgres", close: func() error {
			client.Close()

			return nil
		}})
	case "memory":
		slog.Warn("Using in-memory storage; orders are lost on restart")
		c.orderRepo = ordermemory.NewOrderRepository()
		c.outboxRepo = outboxmemory.NewOutboxRepository()
	default:
		panic(fmt.Sprintf("unknown storage.driver %q", driver))
	}
}

func (c *core) mustInitBroker() {
	switch broker := viper.GetString("events.broker"); broker {
	case "", "none":
		slog.Info("Status events are disabled")
	case "rabbitmq":
		client := rabbitmq.MustNewClient()
		c.broker = client
		c.closers = append(c.closers, closer{name: "rabbitmq", close: client.Close})
	case "kafka":
		client := kafka.MustNewClient()
		c.broker = client
		c.closers = append(c.closers, closer{name: "kafka", close: client.Close})
	default:
		panic(fmt.Sprintf("unknown events.broker %q", broker))
	}
}

func (c *core) mustInitIdempotency() iidempotencyrepo.IIdempotencyRepository {
	if viper.GetString("redis.addr") == "" {
		return idemmemory.NewIdempotencyRepository()
	}

	client := redis.MustNewClient()
	c.closers = append(c.closers, closer{name: "redis", close: client.Close})

	return idemredis.NewIdempotencyRepository(client)
}

func (c *core) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.close(); err != nil {
			slog.Error("Connection close error", "component", cl.name, "error", err)
		} else {
			slog.Info("Connection closed gracefully", "component", cl.name)
		}
	}
}
