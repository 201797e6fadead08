package storage

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

// ClickHouseStore persists finished reports for historical querying.
type ClickHouseStore struct {
	conn driver.Conn
}

func NewClickHouseStore(cfg *config.Config) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.ClickHouseAddr},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logrus.WithField("addr", cfg.ClickHouseAddr).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn}, nil
}

func (c *ClickHouseStore) InsertReport(ctx context.Context, report *models.PortfolioPnLResult) error {
	query := `
		INSERT INTO pnl_reports (
			wallet_address, generated_at, total_invested_usd, total_returned_usd,
			realized_pnl_usd, unrealized_pnl_usd, total_pnl_usd, profit_percent,
			total_trades, winning_trades, losing_trades, win_rate_percent,
			expectancy_usd, median_roi_percent, skill_ratio,
			avg_hold_time_minutes, median_hold_time_minutes,
			max_win_streak, max_loss_streak,
			active_days, unique_tokens, events_processed, failed_tokens
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		report.WalletAddress,
		report.GeneratedAt,
		report.TotalInvestedUSD.InexactFloat64(),
		report.TotalReturnedUSD.InexactFloat64(),
		report.RealizedPnLUSD.InexactFloat64(),
		report.UnrealizedPnLUSD.InexactFloat64(),
		report.TotalPnLUSD.InexactFloat64(),
		report.ProfitPercent.InexactFloat64(),
		report.TotalTrades,
		report.WinningTrades,
		report.LosingTrades,
		report.OverallWinRatePercent.InexactFloat64(),
		report.ExpectancyUSD.InexactFloat64(),
		report.MedianROIPercent.InexactFloat64(),
		report.SkillRatio.InexactFloat64(),
		report.AvgHoldTimeMinutes.InexactFloat64(),
		report.MedianHoldTimeMinutes.InexactFloat64(),
		report.MaxWinStreak,
		report.MaxLossStreak,
		report.ActiveDaysCount,
		report.UniqueTokensCount,
		report.EventsProcessed,
		uint32(len(report.FailedTokens)),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return c.insertTokenRows(ctx, report)
}

func (c *ClickHouseStore) insertTokenRows(ctx context.Context, report *models.PortfolioPnLResult) error {
	if len(report.TokenResults) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO pnl_token_results (
			wallet_address, generated_at, token_address, token_symbol,
			total_invested_usd, total_returned_usd, realized_pnl_usd,
			unrealized_pnl_usd, total_pnl_usd, profit_percent,
			total_trades, winning_trades, losing_trades, win_rate_percent,
			avg_hold_time_minutes, unmatched_sell_quantity, incomplete_trades
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare token batch: %w", err)
	}

	for _, r := range report.TokenResults {
		err := batch.Append(
			report.WalletAddress,
			report.GeneratedAt,
			r.TokenAddress,
			r.TokenSymbol,
			r.TotalInvestedUSD.InexactFloat64(),
			r.TotalReturnedUSD.InexactFloat64(),
			r.RealizedPnLUSD.InexactFloat64(),
			r.UnrealizedPnLUSD.InexactFloat64(),
			r.TotalPnLUSD.InexactFloat64(),
			r.ProfitPercent.InexactFloat64(),
			r.TotalTrades,
			r.WinningTrades,
			r.LosingTrades,
			r.WinRatePercent.InexactFloat64(),
			r.AvgHoldTimeMinutes.InexactFloat64(),
			r.UnmatchedSellQuantity.InexactFloat64(),
			r.IncompleteTradesCount,
		)
		if err != nil {
			return fmt.Errorf("failed to append token row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send token batch: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
