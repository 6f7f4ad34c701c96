package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository()
	first, second := uuid.New(), uuid.New()

	bound, ok, err := repo.Claim(ctx, "k", first)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, bound)

	bound, ok, err = repo.Claim(ctx, "k", second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, first, bound)

	require.NoError(t, repo.Release(ctx, "k"))
	bound, ok, err = repo.Claim(ctx, "k", second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second, bound)
}
