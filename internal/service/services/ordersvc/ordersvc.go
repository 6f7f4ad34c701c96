package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/corray333/backend-labs/reservation/internal/config"
	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/iidempotencyrepo"
	"github.com/corray333/backend-labs/reservation/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/service/models/reservation"
)

type inventory interface {
	Reserve(ctx context.Context, o *order.Order) (reservation.Outcome, error)
}

type statusNotifier interface {
	OrderStatusChanged(ctx context.Context, from order.Status, o *order.Order)
}

type noopNotifier struct{}

func (noopNotifier) OrderStatusChanged(context.Context, order.Status, *order.Order) {}

// OrderService creates orders and drives them through stock reservation.
type OrderService struct {
	orderRepo   iorderrepo.IOrderRepository
	idempotency iidempotencyrepo.IIdempotencyRepository
	inventory   inventory
	events      statusNotifier
	cfg         config.Reservation
	now         func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
// It panics when no order repository or inventory is configured.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		events: noopNotifier{},
		cfg:    config.DefaultReservation(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orderRepo == nil {
		panic("order service requires an order repository")
	}
	if s.inventory == nil {
		panic("order service requires an inventory client")
	}

	return s
}

// WithOrderRepository sets the order repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *OrderService) {
		s.orderRepo = repo
	}
}

// WithIdempotencyRepository enables idempotent order creation.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithIdempotencyRepository(repo iidempotencyrepo.IIdempotencyRepository) option {
	return func(s *OrderService) {
		s.idempotency = repo
	}
}

// WithInventory sets the resilient inventory client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithInventory(inv inventory) option {
	return func(s *OrderService) {
		s.inventory = inv
	}
}

// WithEventPublisher sets the receiver of status change notifications.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(events statusNotifier) option {
	return func(s *OrderService) {
		if events != nil {
			s.events = events
		}
	}
}

// WithReservationConfig sets the attempt policy.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithReservationConfig(cfg config.Reservation) option {
	return func(s *OrderService) {
		s.cfg = cfg
	}
}

// WithClock replaces time.Now.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// CreateItemInput describes one requested order line.
type CreateItemInput struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateOrderInput describes a new order.
type CreateOrderInput struct {
	CustomerID     string
	Items          []CreateItemInput
	IdempotencyKey string
}

// CreateOrder stores a new order in CREATED.
// With an idempotency key already seen, the existing order is returned and created is false.
// While the order bound to the key is still being saved, order.ErrCreationInProgress is returned.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (o *order.Order, created bool, err error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	items := make([]order.Item, 0, len(in.Items))
	for _, it := range in.Items {
		item, err := order.NewItem(it.ProductID, it.ProductName, it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, false, err
		}
		items = append(items, item)
	}

	o, err = order.New(in.CustomerID, items, s.now())
	if err != nil {
		return nil, false, err
	}

	claimed := false
	if in.IdempotencyKey != "" && s.idempotency != nil {
		boundID, ok, err := s.idempotency.Claim(ctx, in.IdempotencyKey, o.ID)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			existing, err := s.orderRepo.FindByID(ctx, boundID)
			if errors.Is(err, order.ErrNotFound) {
				return nil, false, fmt.Errorf("%w: idempotency key %q", order.ErrCreationInProgress, in.IdempotencyKey)
			}
			if err != nil {
				return nil, false, fmt.Errorf("failed to load order for idempotency key: %w", err)
			}
			slog.InfoContext(ctx, "Order already created for idempotency key", "order_id", boundID)

			return existing, false, nil
		}
		claimed = true
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		if claimed {
			if relErr := s.idempotency.Release(ctx, in.IdempotencyKey); relErr != nil {
				slog.ErrorContext(ctx, "Failed to release idempotency key", "error", relErr)
			}
		}

		return nil, false, fmt.Errorf("failed to save order: %w", err)
	}

	slog.InfoContext(ctx, "Order created", "order_id", o.ID, "customer_id", o.CustomerID, "total", o.TotalAmount.String())

	return o, true, nil
}

// GetOrder returns the order with id.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// GetOrdersByCustomer returns the orders of a customer.
func (s *OrderService) GetOrdersByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	return s.orderRepo.FindByCustomer(ctx, customerID)
}

// GetOrdersByStatus returns all orders in status.
func (s *OrderService) GetOrdersByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", order.ErrUnknownStatus, status)
	}

	return s.orderRepo.FindByStatus(ctx, status, 0)
}

// ListOrders returns orders matching the filter.
func (s *OrderService) ListOrders(ctx context.Context, model order.QueryOrdersModel) ([]*order.Order, error) {
	for _, status := range model.Statuses {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", order.ErrUnknownStatus, status)
		}
	}

	return s.orderRepo.Query(ctx, model)
}

// Summary counts orders per status; every status is present.
func (s *OrderService) Summary(ctx context.Context) (order.Summary, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := order.NewSummary()
	for status, n := range counts {
		if status.Valid() {
			summary[status] = n
		}
	}

	return summary, nil
}

// UpdateOrderStatus applies an administrative status change validated by the state machine.
func (s *OrderService) UpdateOrderStatus(
	ctx context.Context,
	id uuid.UUID,
	status order.Status,
	reason string,
) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if err := o.SetStatus(status, reason, s.now()); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to save order status: %w", err)
	}

	slog.InfoContext(ctx, "Order status updated",
		"order_id", o.ID,
		"from", from,
		"status", o.Status,
		"reason", o.Reason(),
	)
	s.events.OrderStatusChanged(ctx, from, o)

	return o, nil
}

// ProcessOrder runs one reservation attempt for the order.
// Terminal orders are returned unchanged. Inventory failures never escape;
// only lookup and persistence errors are returned.
func (s *OrderService) ProcessOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.ProcessOrder")
	defer span.End()

	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.IsTerminal() {
		slog.DebugContext(ctx, "Order already in terminal state", "order_id", o.ID, "status", o.Status)

		return o, nil
	}

	if o.ReservationAttempts >= s.cfg.MaxAttempts {
		return s.exhaust(ctx, o, order.ReasonMaxAttempts)
	}

	from := o.Status
	if err := o.BeginReservationAttempt(s.now()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to save reservation attempt: %w", err)
	}
	if from != o.Status {
		s.events.OrderStatusChanged(ctx, from, o)
	}

	outcome, callErr := s.reserve(ctx, o)
	decision := Interpret(o, outcome, callErr)

	if decision.Retry {
		slog.WarnContext(ctx, "Stock reservation not completed, will retry",
			"order_id", o.ID,
			"attempt", o.ReservationAttempts,
			"message", outcome.Message,
			"error", callErr,
		)

		return o, nil
	}

	from = o.Status
	if err := decision.apply(o, s.now()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to save reservation result: %w", err)
	}

	slog.InfoContext(ctx, "Stock reservation finished",
		"order_id", o.ID,
		"attempt", o.ReservationAttempts,
		"status", o.Status,
		"reason", o.Reason(),
	)
	s.events.OrderStatusChanged(ctx, from, o)

	return o, nil
}

func (s *OrderService) exhaust(ctx context.Context, o *order.Order, reason string) (*order.Order, error) {
	from := o.Status
	if err := o.MarkInvalid(reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to save exhausted order: %w", err)
	}

	slog.WarnContext(ctx, "Order invalidated",
		"order_id", o.ID,
		"attempt", o.ReservationAttempts,
		"error", fmt.Errorf("%w: %s", order.ErrPolicyExhausted, reason),
	)
	s.events.OrderStatusChanged(ctx, from, o)

	return o, nil
}

func (s *OrderService) reserve(ctx context.Context, o *order.Order) (outcome reservation.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inventory call panicked: %v", r)
		}
	}()

	outcome, err = s.inventory.Reserve(ctx, o)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Inventory call failed", "order_id", o.ID, "error", err)
	}

	return outcome, err
}
