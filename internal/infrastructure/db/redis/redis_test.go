package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSweepLock_ExclusivePerIndex(t *testing.T) {
	mr, client := newTestClient(t)
	lock := NewSweepLock(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	release, err := lock.Acquire(ctx, 7)
	require.NoError(t, err)
	require.True(t, mr.Exists("sweeplock:7"))

	_, err = lock.Acquire(ctx, 7)
	require.ErrorIs(t, err, domain.ErrSweepInProgress)

	other, err := lock.Acquire(ctx, 8)
	require.NoError(t, err)
	other()

	release()
	require.False(t, mr.Exists("sweeplock:7"))

	again, err := lock.Acquire(ctx, 7)
	require.NoError(t, err)
	again()
}

func TestSweepLock_ReleaseKeepsForeignLock(t *testing.T) {
	mr, client := newTestClient(t)
	lock := NewSweepLock(client, time.Second, zerolog.Nop())

	release, err := lock.Acquire(context.Background(), 3)
	require.NoError(t, err)

	// Our lock expires and another process takes it over.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("sweeplock:3", "someone-else"))

	release()
	val, err := mr.Get("sweeplock:3")
	require.NoError(t, err)
	require.Equal(t, "someone-else", val)
}

type countingOracle struct {
	price decimal.Decimal
	err   error
	calls int
}

func (o *countingOracle) FiatPrice(context.Context, string) (decimal.Decimal, error) {
	o.calls++
	return o.price, o.err
}

func TestPriceCache_HitsRedisWithinTTL(t *testing.T) {
	mr, client := newTestClient(t)
	inner := &countingOracle{price: decimal.RequireFromString("312.45")}
	cache := NewPriceCache(client, inner, time.Minute, zerolog.Nop())
	ctx := context.Background()

	p1, err := cache.FiatPrice(ctx, "BCH")
	require.NoError(t, err)
	p2, err := cache.FiatPrice(ctx, "bch")
	require.NoError(t, err)

	require.True(t, p1.Equal(p2))
	require.Equal(t, 1, inner.calls)
	require.True(t, mr.Exists("price:bch:usd"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.FiatPrice(ctx, "bch")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestPriceCache_ErrorsNotCached(t *testing.T) {
	mr, client := newTestClient(t)
	inner := &countingOracle{err: errors.New("oracle down")}
	cache := NewPriceCache(client, inner, time.Minute, zerolog.Nop())

	_, err := cache.FiatPrice(context.Background(), "bch")
	require.Error(t, err)
	require.False(t, mr.Exists("price:bch:usd"))
}

func TestNewPriceCache_DisabledReturnsInner(t *testing.T) {
	inner := &countingOracle{}
	require.Same(t, inner, NewPriceCache(nil, inner, time.Minute, zerolog.Nop()))
}
