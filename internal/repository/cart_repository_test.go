package repository

import (
	"context"
	"testing"
	"time"

	"catalog-api/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartRepository(t *testing.T, ttl time.Duration) (CartRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCartRepository(client, ttl), mr
}

func TestCartRepository_EmptyCartForUnknownUser(t *testing.T) {
	repo, _ := newTestCartRepository(t, 0)

	items, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestCartRepository_SaveGetClear(t *testing.T) {
	repo, mr := newTestCartRepository(t, time.Hour)
	ctx := context.Background()

	cart := []domain.CartItem{
		{Product: "p-lg", Quantity: 1},
		{Product: "p-asus", Quantity: 2},
	}
	require.NoError(t, repo.Save(ctx, "user-1", cart))

	assert.True(t, mr.Exists("cart:user-1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:user-1"))

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, cart, got)

	other, err := repo.Get(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, repo.Clear(ctx, "user-1"))
	got, err = repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCartRepository_ExpiresWithTTL(t *testing.T) {
	repo, mr := newTestCartRepository(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "user-1", []domain.CartItem{{Product: "p-lg", Quantity: 1}}))
	mr.FastForward(2 * time.Minute)

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCartRepository_CorruptPayload(t *testing.T) {
	repo, mr := newTestCartRepository(t, 0)
	require.NoError(t, mr.Set("cart:user-1", "not json"))

	_, err := repo.Get(context.Background(), "user-1")
	assert.Error(t, err)
}
