package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/constants"
)

// CachedSource wraps another source with a Redis read-through cache so
// repeated portfolio valuations don't hammer the price API.
type CachedSource struct {
	rdb  *redis.Client
	next Source
	ttl  time.Duration
	log  *logrus.Entry
}

func NewCachedSource(rdb *redis.Client, next Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		rdb:  rdb,
		next: next,
		ttl:  ttl,
		log:  logrus.WithField("component", "price_cache"),
	}
}

func (c *CachedSource) Price(ctx context.Context, mint string) (decimal.Decimal, error) {
	key := constants.RedisKeyPricePrefix + mint

	val, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		if price, perr := decimal.NewFromString(val); perr == nil {
			return price, nil
		}
		// Corrupt cache entry, fall through to the upstream source.
		c.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.WithError(err).Warn("price cache read failed")
	}

	price, err := c.next.Price(ctx, mint)
	if err != nil {
		return decimal.Zero, err
	}
	if err := c.rdb.Set(ctx, key, price.String(), c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("mint", mint).Warn("price cache write failed")
	}
	return price, nil
}
