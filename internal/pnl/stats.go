package pnl

import (
	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

var (
	hundred       = decimal.NewFromInt(100)
	secondsPerMin = decimal.NewFromInt(60)
)

// fillTradeStats derives win/loss counts, hold time statistics, streaks and
// profit percentage from the matched trades already on the result.
func fillTradeStats(r *models.TokenPnLResult) {
	r.TotalTrades = uint32(len(r.MatchedTrades))
	if r.TotalTrades == 0 {
		return
	}

	var holdSum int64
	minHold := r.MatchedTrades[0].HoldTimeSeconds
	maxHold := minHold
	for _, t := range r.MatchedTrades {
		if t.Winning() {
			r.WinningTrades++
		} else if t.Losing() {
			r.LosingTrades++
		}
		holdSum += t.HoldTimeSeconds
		if t.HoldTimeSeconds < minHold {
			minHold = t.HoldTimeSeconds
		}
		if t.HoldTimeSeconds > maxHold {
			maxHold = t.HoldTimeSeconds
		}
	}

	// Win rate is winners over all matched trades. Break-even exits stay in
	// the denominator and dilute it, the same way the realized sums count
	// them at zero.
	r.WinRatePercent = decimal.NewFromInt(int64(r.WinningTrades)).Mul(hundred).
		Div(decimal.NewFromInt(int64(r.TotalTrades))).Round(2)
	r.AvgHoldTimeMinutes = decimal.NewFromInt(holdSum).
		Div(decimal.NewFromInt(int64(r.TotalTrades))).Div(secondsPerMin).Round(2)
	r.MinHoldTimeMinutes = decimal.NewFromInt(minHold).Div(secondsPerMin).Round(2)
	r.MaxHoldTimeMinutes = decimal.NewFromInt(maxHold).Div(secondsPerMin).Round(2)

	r.CurrentWinStreak, r.CurrentLossStreak, r.MaxWinStreak, r.MaxLossStreak = computeStreaks(r.MatchedTrades)

	if r.TotalInvestedUSD.IsPositive() {
		r.ProfitPercent = r.TotalPnLUSD.Div(r.TotalInvestedUSD).Mul(hundred).Round(2)
	}
}

// computeStreaks walks trades in match order. Break-even trades neither
// extend nor break a streak.
func computeStreaks(trades []models.MatchedTrade) (curWin, curLoss, maxWin, maxLoss uint32) {
	for _, t := range trades {
		switch {
		case t.Winning():
			curWin++
			curLoss = 0
			if curWin > maxWin {
				maxWin = curWin
			}
		case t.Losing():
			curLoss++
			curWin = 0
			if curLoss > maxLoss {
				maxLoss = curLoss
			}
		}
	}
	return curWin, curLoss, maxWin, maxLoss
}
