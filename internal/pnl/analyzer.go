package pnl

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/consolidate"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/normalize"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/portfolio"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/pricing"
)

// Analyzer runs the full pipeline: consolidation, normalization, per-token
// FIFO matching, portfolio rollup. One failing token never sinks the run;
// it lands in FailedTokens and the rest of the wallet still reports.
type Analyzer struct {
	consolidator *consolidate.Consolidator
	normalizer   *normalize.Normalizer
	matcher      *Matcher
	aggregator   *portfolio.Aggregator
	prices       pricing.Source
	log          *logrus.Entry
}

func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{
		consolidator: consolidate.New(cfg),
		normalizer:   normalize.New(cfg),
		matcher:      NewMatcher(cfg),
		aggregator:   portfolio.New(cfg),
		log:          logrus.WithField("component", "analyzer"),
	}
}

// WithPriceSource enables live revaluation of open positions. Without a
// source, positions are valued at the last price seen in the history.
func (a *Analyzer) WithPriceSource(src pricing.Source) *Analyzer {
	a.prices = src
	return a
}

// Analyze computes the wallet's portfolio P&L from its raw transfer history.
func (a *Analyzer) Analyze(ctx context.Context, wallet string, records []models.ProviderTransferRecord) (*models.PortfolioPnLResult, error) {
	if err := models.ValidateWalletAddress(wallet); err != nil {
		return nil, err
	}

	pairs, warnings := a.consolidator.Consolidate(records)
	events, normWarnings := a.normalizer.Normalize(wallet, pairs)
	warnings = append(warnings, normWarnings...)
	if len(events) == 0 {
		return nil, models.ErrNoEvents
	}

	grouped := normalize.GroupEventsByToken(events)
	tokens := make([]string, 0, len(grouped))
	for addr := range grouped {
		tokens = append(tokens, addr)
	}
	sort.Strings(tokens)

	var results []models.TokenPnLResult
	var failed []models.TokenFailure
	for _, addr := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokenEvents := grouped[addr]
		result, err := a.matcher.CalculateTokenPnL(addr, tokenEvents)
		if err != nil {
			a.log.WithFields(logrus.Fields{
				"wallet": wallet,
				"token":  addr,
			}).WithError(err).Error("token analysis failed")
			failed = append(failed, models.TokenFailure{
				TokenAddress: addr,
				TokenSymbol:  tokenEvents[0].TokenSymbol,
				Reason:       err.Error(),
			})
			warnings = append(warnings, models.Warning{
				Kind:         models.WarnTokenSkipped,
				TokenAddress: addr,
				Detail:       err.Error(),
			})
			continue
		}
		a.revalueAtLivePrice(ctx, result)
		results = append(results, *result)
	}

	report := a.aggregator.Aggregate(wallet, results, failed, warnings, uint32(len(events)))
	a.log.WithFields(logrus.Fields{
		"wallet":        wallet,
		"events":        len(events),
		"tokens":        len(results),
		"failed_tokens": len(failed),
		"total_pnl_usd": report.TotalPnLUSD.StringFixed(2),
	}).Info("wallet analysis complete")
	return report, nil
}

// revalueAtLivePrice replaces the history-derived position valuation with a
// live quote when a price source is configured. Lookup failures are logged
// and the historical valuation stands.
func (a *Analyzer) revalueAtLivePrice(ctx context.Context, r *models.TokenPnLResult) {
	if a.prices == nil || r.RemainingPosition == nil {
		return
	}
	price, err := a.prices.Price(ctx, r.TokenAddress)
	if err != nil || !price.IsPositive() {
		if err != nil {
			a.log.WithField("token", r.TokenAddress).WithError(err).Debug("live price lookup failed")
		}
		return
	}

	pos := r.RemainingPosition
	pos.CurrentPriceUSD = price
	pos.CurrentValueUSD = pos.Quantity.Mul(price)
	pos.UnrealizedPnLUSD = pos.CurrentValueUSD.Sub(pos.TotalCostBasisUSD)

	r.UnrealizedPnLUSD = pos.UnrealizedPnLUSD
	r.TotalPnLUSD = r.RealizedPnLUSD.Add(r.UnrealizedPnLUSD)
	if r.TotalInvestedUSD.IsPositive() {
		r.ProfitPercent = r.TotalPnLUSD.Div(r.TotalInvestedUSD).Mul(decimal.NewFromInt(100)).Round(2)
	}
}
