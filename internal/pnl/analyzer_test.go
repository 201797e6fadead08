package pnl

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/pricing"
)

const mintRAY = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"

func rec(token, symbol string, qty, price float64, dir models.Direction, txID, actID string, at time.Time) models.ProviderTransferRecord {
	r := models.ProviderTransferRecord{
		TokenAddress:  token,
		TokenSymbol:   symbol,
		Quantity:      decimal.NewFromFloat(qty),
		Direction:     dir,
		TransactionID: txID,
		TradeActID:    actID,
		Timestamp:     at,
	}
	if price > 0 {
		p := decimal.NewFromFloat(price)
		r.USDPricePerUnit = &p
	}
	return r
}

func TestAnalyzeEndToEnd(t *testing.T) {
	a := NewAnalyzer(config.Load())

	// Buy 10 RAY for $100, later sell all 10 for $150.
	records := []models.ProviderTransferRecord{
		rec(constants.USDCMint, "USDC", 100, 1, models.DirectionOut, "tx1", "act1", t0),
		rec(mintRAY, "RAY", 10, 0, models.DirectionIn, "tx1", "act1", t0),
		rec(mintRAY, "RAY", 10, 0, models.DirectionOut, "tx2", "act2", t0.Add(time.Hour)),
		rec(constants.USDCMint, "USDC", 150, 1, models.DirectionIn, "tx2", "act2", t0.Add(time.Hour)),
	}

	report, err := a.Analyze(context.Background(), testWallet, records)
	require.NoError(t, err)

	assert.Equal(t, testWallet, report.WalletAddress)
	assert.Equal(t, uint32(2), report.EventsProcessed)
	require.Len(t, report.TokenResults, 1)
	assert.Empty(t, report.FailedTokens)

	ray := report.TokenResults[0]
	assert.Equal(t, mintRAY, ray.TokenAddress)
	assert.True(t, ray.RealizedPnLUSD.Equal(decimal.NewFromInt(50)), "realized %s", ray.RealizedPnLUSD)
	assert.Nil(t, ray.RemainingPosition)

	assert.True(t, report.TotalPnLUSD.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, uint32(1), report.TotalTrades)
	assert.Equal(t, uint32(1), report.WinningTrades)
}

func TestAnalyzeIsolatesFailingToken(t *testing.T) {
	a := NewAnalyzer(config.Load())

	records := []models.ProviderTransferRecord{
		// A trade whose stable leg is beyond any plausible magnitude: the
		// BONK analysis must fail without sinking RAY's.
		rec(constants.USDCMint, "USDC", 1e45, 1, models.DirectionOut, "tx1", "act1", t0),
		rec(mintBONK, "BONK", 1, 0, models.DirectionIn, "tx1", "act1", t0),
		// A normal RAY round trip.
		rec(constants.USDCMint, "USDC", 100, 1, models.DirectionOut, "tx2", "act2", t0.Add(time.Minute)),
		rec(mintRAY, "RAY", 10, 0, models.DirectionIn, "tx2", "act2", t0.Add(time.Minute)),
	}

	report, err := a.Analyze(context.Background(), testWallet, records)
	require.NoError(t, err)

	require.Len(t, report.FailedTokens, 1)
	assert.Equal(t, mintBONK, report.FailedTokens[0].TokenAddress)
	require.Len(t, report.TokenResults, 1)
	assert.Equal(t, mintRAY, report.TokenResults[0].TokenAddress)

	found := false
	for _, w := range report.Warnings {
		if w.Kind == models.WarnTokenSkipped && w.TokenAddress == mintBONK {
			found = true
		}
	}
	assert.True(t, found, "expected token_skipped warning for BONK")
}

func TestAnalyzeRejectsBadWallet(t *testing.T) {
	a := NewAnalyzer(config.Load())
	_, err := a.Analyze(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, models.ErrInvalidAddress)
}

func TestAnalyzeNoEvents(t *testing.T) {
	a := NewAnalyzer(config.Load())
	_, err := a.Analyze(context.Background(), testWallet, nil)
	assert.ErrorIs(t, err, models.ErrNoEvents)
}

func TestAnalyzeHonorsContextCancel(t *testing.T) {
	a := NewAnalyzer(config.Load())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	records := []models.ProviderTransferRecord{
		rec(constants.USDCMint, "USDC", 100, 1, models.DirectionOut, "tx1", "act1", t0),
		rec(mintRAY, "RAY", 10, 0, models.DirectionIn, "tx1", "act1", t0),
	}
	_, err := a.Analyze(ctx, testWallet, records)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeRevaluesAtLivePrice(t *testing.T) {
	prices := pricing.NewStaticSource(map[string]decimal.Decimal{
		mintRAY: decimal.NewFromInt(15),
	})
	a := NewAnalyzer(config.Load()).WithPriceSource(prices)

	// Buy 10 RAY for $100 and hold.
	records := []models.ProviderTransferRecord{
		rec(constants.USDCMint, "USDC", 100, 1, models.DirectionOut, "tx1", "act1", t0),
		rec(mintRAY, "RAY", 10, 0, models.DirectionIn, "tx1", "act1", t0),
	}

	report, err := a.Analyze(context.Background(), testWallet, records)
	require.NoError(t, err)
	require.Len(t, report.TokenResults, 1)

	pos := report.TokenResults[0].RemainingPosition
	require.NotNil(t, pos)
	assert.True(t, pos.CurrentPriceUSD.Equal(decimal.NewFromInt(15)))
	assert.True(t, pos.UnrealizedPnLUSD.Equal(decimal.NewFromInt(50)), "unrealized %s", pos.UnrealizedPnLUSD)
	assert.True(t, report.UnrealizedPnLUSD.Equal(decimal.NewFromInt(50)))
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := checkedMul(decimal.New(1, 30), decimal.New(1, 30))
	assert.ErrorIs(t, err, models.ErrArithmeticOverflow)

	got, err := checkedMul(decimal.NewFromInt(6), decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(42)))

	_, err = checkedDiv(decimal.NewFromInt(1), decimal.Zero)
	assert.ErrorIs(t, err, models.ErrDivisionByZero)
}
