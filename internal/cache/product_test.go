package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"cryptomart/internal/domain"
	"cryptomart/internal/pricing"
)

func TestNopAlwaysMisses(t *testing.T) {
	var c ProductCache = Nop{}
	require.NoError(t, c.Set(context.Background(), domain.Product{ID: "p1"}))
	_, err := c.Get(context.Background(), "p1")
	require.ErrorIs(t, err, ErrMiss)
}

func TestProductKey(t *testing.T) {
	require.Equal(t, "product:abc", productKey("abc"))
}

func TestRedisRoundTripKeepsExactPrice(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := Connect(ctx, addr, "", nil)
	require.NoError(t, err)
	defer rdb.Close()

	c := NewRedis(rdb, time.Minute)
	p := domain.Product{
		ID:       uuid.NewString(),
		Name:     "Ledger",
		Price:    pricing.MustParse("0.333333333333333"),
		Quantity: 4,
	}
	require.NoError(t, c.Set(ctx, p))

	got, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "0.333333333333333", got.Price.String())
	require.Equal(t, 4, got.Quantity)

	require.NoError(t, c.Delete(ctx, p.ID))
	_, err = c.Get(ctx, p.ID)
	require.True(t, errors.Is(err, ErrMiss))
}
