package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/ports"
)

// PriceCache decorates a PriceOracle with a short-lived Redis cache.
// Key format: price:<asset>:usd
type PriceCache struct {
	client *redis.Client
	next   ports.PriceOracle
	ttl    time.Duration
	log    zerolog.Logger
}

// NewPriceCache returns next unchanged when ttl is not positive.
func NewPriceCache(client *redis.Client, next ports.PriceOracle, ttl time.Duration, log zerolog.Logger) ports.PriceOracle {
	if ttl <= 0 || client == nil {
		return next
	}
	return &PriceCache{client: client, next: next, ttl: ttl, log: log}
}

func (c *PriceCache) FiatPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	key := c.key(asset)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if price, perr := decimal.NewFromString(cached); perr == nil {
			return price, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding unparsable cached price")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("price cache read failed")
	}

	price, err := c.next.FiatPrice(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	if err := c.client.Set(ctx, key, price.String(), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("price cache write failed")
	}
	return price, nil
}

func (c *PriceCache) key(asset string) string {
	return fmt.Sprintf("price:%s:usd", strings.ToLower(asset))
}
