//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/corray333/backend-labs/reservation/internal/dal/postgres"
	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

func newRepository(t *testing.T) *OrderRepository {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("orders"),
		tcpostgres.WithUsername("orders"),
		tcpostgres.WithPassword("orders"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := postgres.NewClient(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	require.NoError(t, client.Migrate(ctx))

	return NewOrderRepository(client)
}

func TestOrderRepository_Postgres(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	a, err := order.NewItem("p-1", "", 3, decimal.RequireFromString("19.99"))
	require.NoError(t, err)
	b, err := order.NewItem("p-2", "Gadget", 1, decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	o, err := order.New("c-1", []order.Item{a, b}, now)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, o))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCreated, got.Status)
	assert.True(t, o.TotalAmount.Equal(got.TotalAmount))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Product p-1", got.Items[0].ProductName)
	assert.True(t, b.UnitPrice.Equal(got.Items[1].UnitPrice))
	assert.Nil(t, got.FailureReason)
	assert.Nil(t, got.LastReservationAttempt)

	require.NoError(t, got.BeginReservationAttempt(now.Add(time.Second)))
	require.NoError(t, got.MarkInvalid("out of stock", now.Add(2*time.Second)))
	require.NoError(t, repo.Save(ctx, got))

	reloaded, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusInvalid, reloaded.Status)
	assert.Equal(t, "out of stock", reloaded.Reason())
	assert.Equal(t, 1, reloaded.ReservationAttempts)
	require.NotNil(t, reloaded.LastReservationAttempt)
	assert.True(t, now.Add(time.Second).Equal(*reloaded.LastReservationAttempt))
	assert.Len(t, reloaded.Items, 2, "items are not duplicated on re-save")

	invalid, err := repo.FindByStatus(ctx, order.StatusInvalid, 10)
	require.NoError(t, err)
	require.Len(t, invalid, 1)

	byCustomer, err := repo.FindByCustomer(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, byCustomer, 1)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[order.StatusInvalid])

	_, err = repo.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, order.ErrNotFound)
}
