package storage

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

const testWallet = "DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK"

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

func sampleReport(wallet string) *models.PortfolioPnLResult {
	return &models.PortfolioPnLResult{
		WalletAddress: wallet,
		GeneratedAt:   time.Now().UTC(),
		TotalPnLUSD:   decimal.NewFromInt(1234),
		TotalTrades:   7,
	}
}

func TestReportCacheRoundTrip(t *testing.T) {
	cache, err := NewRedisReportCache(setupTestRedis(t), time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, cache.SaveReport(ctx, sampleReport(testWallet)))

	got, err := cache.GetReport(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, testWallet, got.WalletAddress)
	assert.True(t, got.TotalPnLUSD.Equal(decimal.NewFromInt(1234)))
	assert.Equal(t, uint32(7), got.TotalTrades)
}

func TestReportCacheMiss(t *testing.T) {
	cache, err := NewRedisReportCache(setupTestRedis(t), time.Minute)
	require.NoError(t, err)

	_, err = cache.GetReport(context.Background(), testWallet)
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestRecentWalletsDeduplicated(t *testing.T) {
	cache, err := NewRedisReportCache(setupTestRedis(t), time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	other := "So11111111111111111111111111111111111111112"
	require.NoError(t, cache.SaveReport(ctx, sampleReport(testWallet)))
	require.NoError(t, cache.SaveReport(ctx, sampleReport(other)))
	// Re-analyzing a wallet moves it back to the front without duplicating.
	require.NoError(t, cache.SaveReport(ctx, sampleReport(testWallet)))

	wallets, err := cache.RecentWallets(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{testWallet, other}, wallets)
}

func TestNilClientRejected(t *testing.T) {
	_, err := NewRedisReportCache(nil, time.Minute)
	assert.Error(t, err)
}
