package iorderrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

// IOrderRepository is the persistence capability consumed by the reservation workflow.
// Save is a full-record upsert with last-write-wins semantics.
type IOrderRepository interface {
	// Save inserts or replaces the order and its items
	Save(ctx context.Context, o *order.Order) error

	// FindByID returns order.ErrNotFound when no order has the id
	FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error)

	// FindByStatus returns orders in status, oldest update first; limit <= 0 means all
	FindByStatus(ctx context.Context, status order.Status, limit int) ([]*order.Order, error)

	// FindByCustomer returns the customer's orders, newest first
	FindByCustomer(ctx context.Context, customerID string) ([]*order.Order, error)

	// Query returns orders matching the filter, newest first
	Query(ctx context.Context, model order.QueryOrdersModel) ([]*order.Order, error)

	// CountByStatus returns the number of orders per status
	CountByStatus(ctx context.Context) (map[order.Status]int64, error)
}
