package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

func newOrder(t *testing.T, customerID string, at time.Time) *order.Order {
	t.Helper()

	item, err := order.NewItem("p-1", "Widget", 2, decimal.NewFromInt(4))
	require.NoError(t, err)
	o, err := order.New(customerID, []order.Item{item}, at)
	require.NoError(t, err)

	return o
}

func TestOrderRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := newOrder(t, "c-1", time.Now())

	require.NoError(t, repo.Save(ctx, o))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	_, err = repo.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderRepository_DoesNotShareState(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := newOrder(t, "c-1", time.Now())
	require.NoError(t, repo.Save(ctx, o))

	o.ReservationAttempts = 42
	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ReservationAttempts)

	got.Items[0].Quantity = 100
	again, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestOrderRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := newOrder(t, "c-1", base)
	second := newOrder(t, "c-1", base.Add(time.Minute))
	other := newOrder(t, "c-2", base.Add(2*time.Minute))
	require.NoError(t, second.BeginReservationAttempt(base.Add(3*time.Minute)))
	require.NoError(t, other.BeginReservationAttempt(base.Add(2*time.Minute)))

	for _, o := range []*order.Order{first, second, other} {
		require.NoError(t, repo.Save(ctx, o))
	}

	byCustomer, err := repo.FindByCustomer(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)
	assert.Equal(t, second.ID, byCustomer[0].ID)

	pending, err := repo.FindByStatus(ctx, order.StatusPendingReservingStock, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, other.ID, pending[0].ID, "oldest update first")

	limited, err := repo.FindByStatus(ctx, order.StatusPendingReservingStock, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[order.StatusCreated])
	assert.Equal(t, int64(2), counts[order.StatusPendingReservingStock])
}

func TestOrderRepository_Query(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	first := newOrder(t, "c-1", base)
	second := newOrder(t, "c-1", base.Add(time.Minute))
	require.NoError(t, second.BeginReservationAttempt(base.Add(time.Minute)))
	other := newOrder(t, "c-2", base.Add(2*time.Minute))
	for _, o := range []*order.Order{first, second, other} {
		require.NoError(t, repo.Save(ctx, o))
	}

	got, err := repo.Query(ctx, order.QueryOrdersModel{CustomerID: "c-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	got, err = repo.Query(ctx, order.QueryOrdersModel{Statuses: []order.Status{order.StatusCreated}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, other.ID, got[0].ID)

	got, err = repo.Query(ctx, order.QueryOrdersModel{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	got, err = repo.Query(ctx, order.QueryOrdersModel{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}
