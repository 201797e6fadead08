package ai

// reportSchemaDescription describes the ClickHouse schema used for NL→SQL prompting.
//
// Keeping it in sync with the actual ClickHouse table definitions in init.sql.
const reportSchemaDescription = `
Database: pnl
Table: pnl_reports

Columns:
  - wallet_address           String    -- Analyzed wallet (base58)
  - generated_at             DateTime  -- When the report was produced (UTC)
  - total_invested_usd       Float64   -- USD spent acquiring tokens
  - total_returned_usd       Float64   -- USD received from sells
  - realized_pnl_usd         Float64   -- P&L from closed trades
  - unrealized_pnl_usd       Float64   -- P&L on open positions at current prices
  - total_pnl_usd            Float64   -- realized + unrealized
  - profit_percent           Float64   -- total_pnl_usd / total_invested_usd * 100
  - total_trades             UInt32    -- FIFO-matched buy/sell pairings
  - winning_trades           UInt32
  - losing_trades            UInt32
  - win_rate_percent         Float64
  - expectancy_usd           Float64   -- Average realized P&L per trade
  - median_roi_percent       Float64   -- Median per-token ROI
  - skill_ratio              Float64   -- Average win / average loss
  - avg_hold_time_minutes    Float64
  - median_hold_time_minutes Float64
  - max_win_streak           UInt32
  - max_loss_streak          UInt32
  - active_days              UInt32    -- Distinct days with at least one sell
  - unique_tokens            UInt32
  - events_processed         UInt32
  - failed_tokens            UInt32

Table: pnl_token_results

Columns:
  - wallet_address          String
  - generated_at            DateTime
  - token_address           String    -- Token mint (base58)
  - token_symbol            String
  - total_invested_usd      Float64
  - total_returned_usd      Float64
  - realized_pnl_usd        Float64
  - unrealized_pnl_usd      Float64
  - total_pnl_usd           Float64
  - profit_percent          Float64
  - total_trades            UInt32
  - winning_trades          UInt32
  - losing_trades           UInt32
  - win_rate_percent        Float64
  - avg_hold_time_minutes   Float64
  - unmatched_sell_quantity Float64   -- Quantity sold beyond known acquisitions
  - incomplete_trades       UInt32    -- Sells that needed a synthesized receive

Notes:
  - Join the two tables on (wallet_address, generated_at) for per-token drilldowns.
  - Time filters should use generated_at, e.g. generated_at >= now() - INTERVAL 7 DAY.
  - A wallet may have many reports; the latest generated_at is the current view.
`
