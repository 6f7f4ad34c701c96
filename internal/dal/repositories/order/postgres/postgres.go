package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/reservation/internal/dal/postgres"
	"github.com/corray333/backend-labs/reservation/internal/dal/uow"
	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

var orderColumns = []string{
	"id",
	"customer_id",
	"total_amount::text",
	"status",
	"failure_reason",
	"reservation_attempts",
	"last_reservation_attempt",
	"created_at",
	"updated_at",
}

// OrderDal is the row shape of the orders table.
type OrderDal struct {
	ID                     uuid.UUID
	CustomerID             string
	TotalAmount            string
	Status                 string
	FailureReason          *string
	ReservationAttempts    int
	LastReservationAttempt *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ToModel converts OrderDal to the service layer model without items.
func (d *OrderDal) ToModel() (*order.Order, error) {
	total, err := decimal.NewFromString(d.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total amount %q: %w", d.TotalAmount, err)
	}

	return &order.Order{
		ID:                     d.ID,
		CustomerID:             d.CustomerID,
		Items:                  []order.Item{},
		TotalAmount:            total,
		Status:                 order.Status(d.Status),
		FailureReason:          d.FailureReason,
		ReservationAttempts:    d.ReservationAttempts,
		LastReservationAttempt: d.LastReservationAttempt,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}, nil
}

// OrderRepository persists orders in PostgreSQL.
type OrderRepository struct {
	client *postgres.Client
	uow    interface {
		Do(ctx context.Context, fn func(tx pgx.Tx) error) error
	}
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(client *postgres.Client) *OrderRepository {
	return &OrderRepository{
		client: client,
		uow:    uow.NewUnitOfWork(client.Pool()),
	}
}

// Save upserts the order row and inserts items that are not stored yet, in one transaction.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	orderQuery, orderArgs, err := sq.Insert("orders").
		Columns(
			"id",
			"customer_id",
			"total_amount",
			"status",
			"failure_reason",
			"reservation_attempts",
			"last_reservation_attempt",
			"created_at",
			"updated_at",
		).
		Values(
			o.ID,
			o.CustomerID,
			sq.Expr("?::numeric", o.TotalAmount.String()),
			string(o.Status),
			o.FailureReason,
			o.ReservationAttempts,
			o.LastReservationAttempt,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			total_amount = EXCLUDED.total_amount,
			status = EXCLUDED.status,
			failure_reason = EXCLUDED.failure_reason,
			reservation_attempts = EXCLUDED.reservation_attempts,
			last_reservation_attempt = EXCLUDED.last_reservation_attempt,
			updated_at = EXCLUDED.updated_at`).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert order query: %w", err)
	}

	var itemsQuery string
	var itemsArgs []any
	if len(o.Items) > 0 {
		builder := sq.Insert("order_items").
			Columns("id", "order_id", "position", "product_id", "product_name", "quantity", "unit_price")
		for i, item := range o.Items {
			builder = builder.Values(
				item.ID,
				o.ID,
				i,
				item.ProductID,
				item.ProductName,
				item.Quantity,
				sq.Expr("?::numeric", item.UnitPrice.String()),
			)
		}

		itemsQuery, itemsArgs, err = builder.
			Suffix("ON CONFLICT (id) DO NOTHING").
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert items query: %w", err)
		}
	}

	return r.uow.Do(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, orderQuery, orderArgs...); err != nil {
			return fmt.Errorf("failed to upsert order: %w", err)
		}

		if itemsQuery == "" {
			return nil
		}

		if _, err := tx.Exec(ctx, itemsQuery, itemsArgs...); err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}

		return nil
	})
}

// FindByID loads an order with its items.
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	orders, err := r.query(ctx, sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return nil, order.ErrNotFound
	}

	return orders[0], nil
}

// FindByStatus returns orders in status ordered by last update.
func (r *OrderRepository) FindByStatus(ctx context.Context, status order.Status, limit int) ([]*order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("updated_at ASC", "id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return r.query(ctx, builder)
}

// FindByCustomer returns the customer's orders, newest first.
func (r *OrderRepository) FindByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	return r.query(ctx, sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("created_at DESC", "id ASC"))
}

// Query returns orders filtered by customer and statuses, newest first.
func (r *OrderRepository) Query(ctx context.Context, model order.QueryOrdersModel) ([]*order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id ASC")

	if model.CustomerID != "" {
		builder = builder.Where(sq.Eq{"customer_id": model.CustomerID})
	}
	if len(model.Statuses) > 0 {
		statuses := make([]string, len(model.Statuses))
		for i, s := range model.Statuses {
			statuses[i] = string(s)
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if model.Limit > 0 {
		builder = builder.Limit(uint64(model.Limit))
	}
	if model.Offset > 0 {
		builder = builder.Offset(uint64(model.Offset))
	}

	return r.query(ctx, builder)
}

// CountByStatus counts orders per status.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	query, args, err := sq.Select("status", "COUNT(*)").
		From("orders").
		GroupBy("status").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	rows, err := r.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[order.Status]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		counts[order.Status(status)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return counts, nil
}

func (r *OrderRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]*order.Order, error) {
	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []*order.Order
	byID := make(map[uuid.UUID]*order.Order)
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.ID,
			&dal.CustomerID,
			&dal.TotalAmount,
			&dal.Status,
			&dal.FailureReason,
			&dal.ReservationAttempts,
			&dal.LastReservationAttempt,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}

		result = append(result, model)
		byID[model.ID] = model
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, byID map[uuid.UUID]*order.Order) error {
	if len(byID) == 0 {
		return nil
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id.String())
	}

	query, args, err := sq.Select("id", "order_id", "product_id", "product_name", "quantity", "unit_price::text").
		From("order_items").
		Where(sq.Expr("order_id = ANY(?::uuid[])", ids)).
		OrderBy("order_id", "position").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build select items query: %w", err)
	}

	rows, err := r.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item order.Item
		var orderID uuid.UUID
		var unitPrice string
		if err := rows.Scan(&item.ID, &orderID, &item.ProductID, &item.ProductName, &item.Quantity, &unitPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		item.UnitPrice, err = decimal.NewFromString(unitPrice)
		if err != nil {
			return fmt.Errorf("failed to parse unit price %q: %w", unitPrice, err)
		}

		o, ok := byID[orderID]
		if !ok {
			return errors.New("order item references an order outside the result set")
		}
		o.Items = append(o.Items, item)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}

	return nil
}
