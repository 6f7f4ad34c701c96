package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

// OrderRepository keeps orders in process memory.
// Records are copied on every read and write.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*order.Order
}

// NewOrderRepository creates an empty repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[uuid.UUID]*order.Order),
	}
}

func (r *OrderRepository) Save(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[o.ID] = o.Clone()

	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}

	return o.Clone(), nil
}

func (r *OrderRepository) FindByStatus(_ context.Context, status order.Status, limit int) ([]*order.Order, error) {
	result := r.filter(func(o *order.Order) bool { return o.Status == status })
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *OrderRepository) FindByCustomer(_ context.Context, customerID string) ([]*order.Order, error) {
	result := r.filter(func(o *order.Order) bool { return o.CustomerID == customerID })
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *OrderRepository) Query(_ context.Context, model order.QueryOrdersModel) ([]*order.Order, error) {
	result := r.filter(func(o *order.Order) bool {
		if model.CustomerID != "" && o.CustomerID != model.CustomerID {
			return false
		}

		return len(model.Statuses) == 0 || slices.Contains(model.Statuses, o.Status)
	})
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if model.Offset > 0 {
		if model.Offset >= len(result) {
			return []*order.Order{}, nil
		}
		result = result[model.Offset:]
	}
	if model.Limit > 0 && len(result) > model.Limit {
		result = result[:model.Limit]
	}

	return result, nil
}

func (r *OrderRepository) CountByStatus(_ context.Context) (map[order.Status]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[order.Status]int64)
	for _, o := range r.orders {
		counts[o.Status]++
	}

	return counts, nil
}

func (r *OrderRepository) filter(keep func(o *order.Order) bool) []*order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*order.Order
	for _, o := range r.orders {
		if keep(o) {
			result = append(result, o.Clone())
		}
	}

	return result
}
