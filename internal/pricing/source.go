// Package pricing resolves current USD prices for valuing open positions.
package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

// Source resolves the current USD price for a token mint.
type Source interface {
	Price(ctx context.Context, mint string) (decimal.Decimal, error)
}

// StaticSource serves prices from a fixed map. Used in tests and for
// offline runs where position valuation comes from the event history alone.
type StaticSource struct {
	prices map[string]decimal.Decimal
}

func NewStaticSource(prices map[string]decimal.Decimal) *StaticSource {
	return &StaticSource{prices: prices}
}

func (s *StaticSource) Price(_ context.Context, mint string) (decimal.Decimal, error) {
	price, ok := s.prices[mint]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", models.ErrPriceUnavailable, mint)
	}
	return price, nil
}
