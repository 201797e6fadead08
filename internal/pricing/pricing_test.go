package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

const mintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func TestStaticSource(t *testing.T) {
	src := NewStaticSource(map[string]decimal.Decimal{
		mintBONK: decimal.NewFromFloat(0.00002),
	})

	price, err := src.Price(context.Background(), mintBONK)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.00002)))

	_, err = src.Price(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrPriceUnavailable)
}

func TestJupiterClientPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, mintBONK, r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"` + mintBONK + `":{"price":"0.000021"}}}`))
	}))
	defer srv.Close()

	c := NewJupiterClient(srv.URL)
	price, err := c.Price(context.Background(), mintBONK)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(0.000021)))
}

func TestJupiterClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewJupiterClient(srv.URL)
	_, err := c.Price(context.Background(), mintBONK)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestJupiterClientMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := NewJupiterClient(srv.URL)
	_, err := c.Price(context.Background(), mintBONK)
	assert.ErrorIs(t, err, models.ErrPriceUnavailable)
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})
	return rdb
}

func TestCachedSource(t *testing.T) {
	rdb := setupTestRedis(t)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"data":{"` + mintBONK + `":{"price":"1.5"}}}`))
	}))
	defer srv.Close()

	src := NewCachedSource(rdb, NewJupiterClient(srv.URL), time.Minute)

	price, err := src.Price(context.Background(), mintBONK)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(1.5)))

	price, err = src.Price(context.Background(), mintBONK)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(1.5)))
	assert.Equal(t, 1, calls, "second read must come from cache")
}
