package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BuyLot is an open FIFO lot: a buy (or receive) event with the quantity
// still unconsumed by later sells.
type BuyLot struct {
	Event             FinancialEvent
	RemainingQuantity decimal.Decimal
}

// MatchedTrade is one buy-sell pairing produced by FIFO matching. A single
// sell may fan out into several matched trades when it spans multiple lots.
type MatchedTrade struct {
	BuyEvent        FinancialEvent  `json:"buy_event"`
	SellEvent       FinancialEvent  `json:"sell_event"`
	MatchedQuantity decimal.Decimal `json:"matched_quantity"`
	RealizedPnLUSD  decimal.Decimal `json:"realized_pnl_usd"`
	HoldTimeSeconds int64           `json:"hold_time_seconds"`
}

// Winning reports whether the trade realized a profit. Zero P&L trades are
// neither winning nor losing.
func (t *MatchedTrade) Winning() bool { return t.RealizedPnLUSD.IsPositive() }

// Losing reports whether the trade realized a loss.
func (t *MatchedTrade) Losing() bool { return t.RealizedPnLUSD.IsNegative() }

// ReceiveConsumption records a sell drawing down a zero-cost-basis receive
// lot. PnLImpactUSD is tracked separately from realized trading P&L so
// airdrops and inbound transfers do not inflate win rates.
type ReceiveConsumption struct {
	ReceiveEvent      FinancialEvent  `json:"receive_event"`
	SellTransactionID string          `json:"sell_transaction_id"`
	ConsumedQuantity  decimal.Decimal `json:"consumed_quantity"`
	PnLImpactUSD      decimal.Decimal `json:"pnl_impact_usd"`
	// Implicit marks consumptions against a synthesized pre-history receive
	// created for a sell that exceeded all known acquisitions.
	Implicit bool `json:"implicit"`
}

// RemainingPosition is the inventory left after matching, valued at the
// current price when one is known.
type RemainingPosition struct {
	TokenAddress      string          `json:"token_address"`
	TokenSymbol       string          `json:"token_symbol"`
	Quantity          decimal.Decimal `json:"quantity"`
	AvgCostBasisUSD   decimal.Decimal `json:"avg_cost_basis_usd"`
	TotalCostBasisUSD decimal.Decimal `json:"total_cost_basis_usd"`
	CurrentPriceUSD   decimal.Decimal `json:"current_price_usd"`
	CurrentValueUSD   decimal.Decimal `json:"current_value_usd"`
	UnrealizedPnLUSD  decimal.Decimal `json:"unrealized_pnl_usd"`
}

// TokenPnLResult is the full per-token analysis output.
type TokenPnLResult struct {
	TokenAddress string `json:"token_address"`
	TokenSymbol  string `json:"token_symbol"`

	TotalInvestedUSD decimal.Decimal `json:"total_invested_usd"`
	TotalReturnedUSD decimal.Decimal `json:"total_returned_usd"`
	RealizedPnLUSD   decimal.Decimal `json:"realized_pnl_usd"`
	UnrealizedPnLUSD decimal.Decimal `json:"unrealized_pnl_usd"`
	TotalPnLUSD      decimal.Decimal `json:"total_pnl_usd"`
	ProfitPercent    decimal.Decimal `json:"profit_percent"`

	MatchedTrades       []MatchedTrade       `json:"matched_trades"`
	ReceiveConsumptions []ReceiveConsumption `json:"receive_consumptions"`
	RemainingPosition   *RemainingPosition   `json:"remaining_position,omitempty"`

	TotalTrades    uint32          `json:"total_trades"`
	WinningTrades  uint32          `json:"winning_trades"`
	LosingTrades   uint32          `json:"losing_trades"`
	WinRatePercent decimal.Decimal `json:"win_rate_percent"`

	AvgHoldTimeMinutes decimal.Decimal `json:"avg_hold_time_minutes"`
	MinHoldTimeMinutes decimal.Decimal `json:"min_hold_time_minutes"`
	MaxHoldTimeMinutes decimal.Decimal `json:"max_hold_time_minutes"`

	CurrentWinStreak  uint32 `json:"current_win_streak"`
	CurrentLossStreak uint32 `json:"current_loss_streak"`
	MaxWinStreak      uint32 `json:"max_win_streak"`
	MaxLossStreak     uint32 `json:"max_loss_streak"`

	// Diagnostics. Losses are surfaced here instead of being dropped.
	UnmatchedSellQuantity decimal.Decimal `json:"unmatched_sell_quantity"`
	IncompleteTradesCount uint32          `json:"incomplete_trades_count"`
	InvalidEventsCount    uint32          `json:"invalid_events_count"`
	Warnings              []Warning       `json:"warnings,omitempty"`
}

// TokenFailure records a token whose analysis errored. One bad token never
// aborts the portfolio run.
type TokenFailure struct {
	TokenAddress string `json:"token_address"`
	TokenSymbol  string `json:"token_symbol"`
	Reason       string `json:"reason"`
}

// PortfolioPnLResult is the wallet-level rollup across all analyzed tokens.
type PortfolioPnLResult struct {
	WalletAddress string    `json:"wallet_address"`
	GeneratedAt   time.Time `json:"generated_at"`

	TotalInvestedUSD decimal.Decimal `json:"total_invested_usd"`
	TotalReturnedUSD decimal.Decimal `json:"total_returned_usd"`
	RealizedPnLUSD   decimal.Decimal `json:"realized_pnl_usd"`
	UnrealizedPnLUSD decimal.Decimal `json:"unrealized_pnl_usd"`
	TotalPnLUSD      decimal.Decimal `json:"total_pnl_usd"`
	ProfitPercent    decimal.Decimal `json:"profit_percent"`

	TotalTrades           uint32          `json:"total_trades"`
	WinningTrades         uint32          `json:"winning_trades"`
	LosingTrades          uint32          `json:"losing_trades"`
	OverallWinRatePercent decimal.Decimal `json:"overall_win_rate_percent"`

	ExpectancyUSD    decimal.Decimal `json:"expectancy_usd"`
	MedianROIPercent decimal.Decimal `json:"median_roi_percent"`
	SkillRatio       decimal.Decimal `json:"skill_ratio"`

	AvgHoldTimeMinutes    decimal.Decimal `json:"avg_hold_time_minutes"`
	MedianHoldTimeMinutes decimal.Decimal `json:"median_hold_time_minutes"`

	MaxWinStreak  uint32 `json:"max_win_streak"`
	MaxLossStreak uint32 `json:"max_loss_streak"`

	ActiveDaysCount   uint32 `json:"active_days_count"`
	UniqueTokensCount uint32 `json:"unique_tokens_count"`
	EventsProcessed   uint32 `json:"events_processed"`

	TokenResults []TokenPnLResult `json:"token_results"`
	FailedTokens []TokenFailure   `json:"failed_tokens,omitempty"`
	Warnings     []Warning        `json:"warnings,omitempty"`
}
