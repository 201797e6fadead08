package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

// RedisReportCache caches full portfolio reports per wallet and keeps a
// capped list of recently analyzed wallets.
type RedisReportCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisReportCache(client redis.Cmdable, ttl time.Duration) (*RedisReportCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisReportCache{client: client, ttl: ttl}, nil
}

func (s *RedisReportCache) SaveReport(ctx context.Context, report *models.PortfolioPnLResult) error {
	b, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, reportKey(report.WalletAddress), b, s.ttl)
	pipe.LRem(ctx, constants.RedisKeyRecentReports, 0, report.WalletAddress)
	pipe.LPush(ctx, constants.RedisKeyRecentReports, report.WalletAddress)
	pipe.LTrim(ctx, constants.RedisKeyRecentReports, 0, constants.MaxRecentReports-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *RedisReportCache) GetReport(ctx context.Context, wallet string) (*models.PortfolioPnLResult, error) {
	val, err := s.client.Get(ctx, reportKey(wallet)).Result()
	if err == redis.Nil {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	var report models.PortfolioPnLResult
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

func (s *RedisReportCache) RecentWallets(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 || limit > constants.MaxRecentReports {
		limit = constants.MaxRecentReports
	}
	wallets, err := s.client.LRange(ctx, constants.RedisKeyRecentReports, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent wallets: %w", err)
	}
	return wallets, nil
}

func (s *RedisReportCache) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func reportKey(wallet string) string {
	return constants.RedisKeyReportPrefix + wallet
}
