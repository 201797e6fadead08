// Package portfolio rolls per-token results up to the wallet level.
// Base currencies (SOL and the USD stables) are the quote side of every
// trade; counting them as positions would double-book each swap, so they
// are listed but excluded from the aggregates.
package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Aggregator rolls per-token results up to the wallet level, skipping the
// configured exchange currencies in the sums.
type Aggregator struct {
	isExchange func(string) bool
}

func New(cfg *config.Config) *Aggregator {
	return &Aggregator{isExchange: cfg.IsExchangeCurrency}
}

// Aggregate builds the wallet-level rollup from per-token results.
func (a *Aggregator) Aggregate(wallet string, results []models.TokenPnLResult, failed []models.TokenFailure, warnings []models.Warning, eventsProcessed uint32) *models.PortfolioPnLResult {
	p := &models.PortfolioPnLResult{
		WalletAddress:   wallet,
		GeneratedAt:     time.Now().UTC(),
		EventsProcessed: eventsProcessed,
		TokenResults:    results,
		FailedTokens:    failed,
		Warnings:        warnings,
	}

	var allTrades []models.MatchedTrade
	var tokenROIs []decimal.Decimal
	activeDays := make(map[string]struct{})

	for i := range results {
		r := &results[i]
		if a.isExchange(r.TokenAddress) {
			continue
		}
		p.UniqueTokensCount++
		p.TotalInvestedUSD = p.TotalInvestedUSD.Add(r.TotalInvestedUSD)
		p.TotalReturnedUSD = p.TotalReturnedUSD.Add(r.TotalReturnedUSD)
		p.RealizedPnLUSD = p.RealizedPnLUSD.Add(r.RealizedPnLUSD)
		p.UnrealizedPnLUSD = p.UnrealizedPnLUSD.Add(r.UnrealizedPnLUSD)
		p.TotalTrades += r.TotalTrades
		p.WinningTrades += r.WinningTrades
		p.LosingTrades += r.LosingTrades

		allTrades = append(allTrades, r.MatchedTrades...)
		if r.TotalInvestedUSD.IsPositive() {
			tokenROIs = append(tokenROIs, r.ProfitPercent)
		}
		for _, t := range r.MatchedTrades {
			activeDays[t.SellEvent.Timestamp.UTC().Format("2006-01-02")] = struct{}{}
		}
	}

	p.TotalPnLUSD = p.RealizedPnLUSD.Add(p.UnrealizedPnLUSD)
	p.ActiveDaysCount = uint32(len(activeDays))

	if p.TotalInvestedUSD.IsPositive() {
		p.ProfitPercent = p.TotalPnLUSD.Div(p.TotalInvestedUSD).Mul(hundred).Round(2)
	}
	if p.TotalTrades > 0 {
		// Every matched trade stays in the denominator, so break-even
		// exits dilute the win rate rather than dropping out of it.
		p.OverallWinRatePercent = decimal.NewFromInt(int64(p.WinningTrades)).Mul(hundred).
			Div(decimal.NewFromInt(int64(p.TotalTrades))).Round(2)
		p.ExpectancyUSD = p.RealizedPnLUSD.Div(decimal.NewFromInt(int64(p.TotalTrades))).Round(2)
	}

	fillTradeAggregates(p, allTrades)
	p.MedianROIPercent = median(tokenROIs)
	return p
}

// fillTradeAggregates derives hold time, streak and payoff statistics from
// the combined trade list, ordered by sell time across all tokens.
func fillTradeAggregates(p *models.PortfolioPnLResult, trades []models.MatchedTrade) {
	if len(trades) == 0 {
		return
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].SellEvent.Timestamp.Before(trades[j].SellEvent.Timestamp)
	})

	var holdSum int64
	holds := make([]decimal.Decimal, 0, len(trades))
	winSum, lossSum := decimal.Zero, decimal.Zero
	var winCount, lossCount int64
	var curWin, curLoss uint32

	for _, t := range trades {
		holdSum += t.HoldTimeSeconds
		holds = append(holds, decimal.NewFromInt(t.HoldTimeSeconds).Div(decimal.NewFromInt(60)))
		switch {
		case t.Winning():
			winSum = winSum.Add(t.RealizedPnLUSD)
			winCount++
			curWin++
			curLoss = 0
			if curWin > p.MaxWinStreak {
				p.MaxWinStreak = curWin
			}
		case t.Losing():
			lossSum = lossSum.Add(t.RealizedPnLUSD)
			lossCount++
			curLoss++
			curWin = 0
			if curLoss > p.MaxLossStreak {
				p.MaxLossStreak = curLoss
			}
		}
	}

	p.AvgHoldTimeMinutes = decimal.NewFromInt(holdSum).
		Div(decimal.NewFromInt(int64(len(trades)))).Div(decimal.NewFromInt(60)).Round(2)
	p.MedianHoldTimeMinutes = median(holds)

	// Skill ratio is the payoff ratio: average win against average loss.
	if winCount > 0 && lossCount > 0 {
		avgWin := winSum.Div(decimal.NewFromInt(winCount))
		avgLoss := lossSum.Div(decimal.NewFromInt(lossCount)).Abs()
		if avgLoss.IsPositive() {
			p.SkillRatio = avgWin.Div(avgLoss).Round(2)
		}
	}
}

func median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid].Round(2)
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2)).Round(2)
}
