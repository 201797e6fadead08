// Package pnl implements FIFO cost-basis matching over financial events.
// Sells draw down buy lots first, then zero-cost receive lots; any surplus
// becomes a synthesized receive so no sold quantity ever disappears from
// the books unaccounted.
package pnl

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

type Matcher struct {
	dustEps   decimal.Decimal
	sanityPnL decimal.Decimal
	policy    config.UnrealizedPricePolicy
	log       *logrus.Entry
}

func NewMatcher(cfg *config.Config) *Matcher {
	return &Matcher{
		dustEps:   cfg.DustEpsilon,
		sanityPnL: cfg.SanityPnLThresholdUSD,
		policy:    cfg.UnrealizedPolicy,
		log:       logrus.WithField("component", "matcher"),
	}
}

// matchState is the per-token mutable state threaded through one matching run.
type matchState struct {
	buyQueue     []models.BuyLot
	receiveQueue []models.BuyLot

	trades       []models.MatchedTrade
	consumptions []models.ReceiveConsumption

	totalInvested decimal.Decimal
	totalReturned decimal.Decimal
	realizedPnL   decimal.Decimal

	unmatchedSell   decimal.Decimal
	incompleteCount uint32
	invalidCount    uint32
	warnings        []models.Warning

	latestAnyPrice  decimal.Decimal
	latestSellPrice decimal.Decimal
}

// CalculateTokenPnL runs FIFO matching over one token's event history and
// returns the full per-token result. Events arriving out of order are
// sorted; invalid events are counted and skipped.
func (m *Matcher) CalculateTokenPnL(tokenAddr string, events []models.FinancialEvent) (*models.TokenPnLResult, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: token %s", models.ErrNoEvents, tokenAddr)
	}

	sorted := make([]models.FinancialEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	st := &matchState{}
	symbol := sorted[0].TokenSymbol

	for i := range sorted {
		ev := sorted[i]
		if err := ev.Validate(); err != nil {
			st.invalidCount++
			st.warnings = append(st.warnings, models.Warning{
				Kind:          models.WarnInvalidEvent,
				TokenAddress:  tokenAddr,
				TransactionID: ev.TransactionID,
				Detail:        err.Error(),
			})
			continue
		}
		if ev.TokenSymbol != "" {
			symbol = ev.TokenSymbol
		}
		if ev.USDPricePerToken.IsPositive() {
			st.latestAnyPrice = ev.USDPricePerToken
			if ev.EventType == models.EventSell {
				st.latestSellPrice = ev.USDPricePerToken
			}
		}

		var err error
		switch ev.EventType {
		case models.EventBuy:
			st.buyQueue = append(st.buyQueue, models.BuyLot{Event: ev, RemainingQuantity: ev.Quantity})
			st.totalInvested, err = safeAdd(st.totalInvested, ev.USDValue)
		case models.EventReceive:
			st.receiveQueue = append(st.receiveQueue, models.BuyLot{Event: ev, RemainingQuantity: ev.Quantity})
		case models.EventSell:
			err = m.matchSell(st, tokenAddr, ev)
		case models.EventSend:
			m.consumeForSend(st, tokenAddr, ev)
		}
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", tokenAddr, err)
		}
	}

	result := &models.TokenPnLResult{
		TokenAddress:          tokenAddr,
		TokenSymbol:           symbol,
		TotalInvestedUSD:      st.totalInvested,
		TotalReturnedUSD:      st.totalReturned,
		RealizedPnLUSD:        st.realizedPnL,
		MatchedTrades:         st.trades,
		ReceiveConsumptions:   st.consumptions,
		UnmatchedSellQuantity: st.unmatchedSell,
		IncompleteTradesCount: st.incompleteCount,
		InvalidEventsCount:    st.invalidCount,
		Warnings:              st.warnings,
	}

	if pos, err := m.remainingPosition(st, tokenAddr, symbol); err != nil {
		return nil, fmt.Errorf("token %s: %w", tokenAddr, err)
	} else if pos != nil {
		result.RemainingPosition = pos
		result.UnrealizedPnLUSD = pos.UnrealizedPnLUSD
	}
	result.TotalPnLUSD = result.RealizedPnLUSD.Add(result.UnrealizedPnLUSD)

	fillTradeStats(result)

	if result.TotalPnLUSD.Abs().GreaterThan(m.sanityPnL) {
		m.log.WithFields(logrus.Fields{
			"token":   tokenAddr,
			"pnl_usd": result.TotalPnLUSD.StringFixed(2),
		}).Warn("total pnl exceeds sanity threshold")
		result.Warnings = append(result.Warnings, models.Warning{
			Kind:         models.WarnExtremePnL,
			TokenAddress: tokenAddr,
			Detail:       fmt.Sprintf("total pnl $%s exceeds sanity threshold $%s", result.TotalPnLUSD.StringFixed(2), m.sanityPnL.StringFixed(0)),
		})
	}
	return result, nil
}

// matchSell consumes inventory for one sell: buy lots first, then receive
// lots, then a synthesized receive for whatever is left over.
func (m *Matcher) matchSell(st *matchState, tokenAddr string, sell models.FinancialEvent) error {
	var err error
	st.totalReturned, err = safeAdd(st.totalReturned, sell.USDValue)
	if err != nil {
		return err
	}

	remaining := sell.Quantity
	for len(st.buyQueue) > 0 && remaining.GreaterThan(m.dustEps) {
		lot := &st.buyQueue[0]
		matched := decimal.Min(lot.RemainingQuantity, remaining)

		priceDiff := sell.USDPricePerToken.Sub(lot.Event.USDPricePerToken)
		realized, err := checkedMul(matched, priceDiff)
		if err != nil {
			return err
		}
		st.realizedPnL, err = safeAdd(st.realizedPnL, realized)
		if err != nil {
			return err
		}

		// Events are time-sorted before matching, so a lot never postdates
		// its sell; the clamp keeps the invariant explicit anyway.
		hold := int64(sell.Timestamp.Sub(lot.Event.Timestamp).Seconds())
		if hold < 0 {
			hold = 0
		}
		st.trades = append(st.trades, models.MatchedTrade{
			BuyEvent:        lot.Event,
			SellEvent:       sell,
			MatchedQuantity: matched,
			RealizedPnLUSD:  realized,
			HoldTimeSeconds: hold,
		})

		lot.RemainingQuantity = lot.RemainingQuantity.Sub(matched)
		remaining = remaining.Sub(matched)
		if lot.RemainingQuantity.LessThanOrEqual(m.dustEps) {
			st.buyQueue = st.buyQueue[1:]
		}
	}

	for len(st.receiveQueue) > 0 && remaining.GreaterThan(m.dustEps) {
		lot := &st.receiveQueue[0]
		consumed := decimal.Min(lot.RemainingQuantity, remaining)
		st.consumptions = append(st.consumptions, models.ReceiveConsumption{
			ReceiveEvent:      lot.Event,
			SellTransactionID: sell.TransactionID,
			ConsumedQuantity:  consumed,
			PnLImpactUSD:      decimal.Zero,
		})
		lot.RemainingQuantity = lot.RemainingQuantity.Sub(consumed)
		remaining = remaining.Sub(consumed)
		if lot.RemainingQuantity.LessThanOrEqual(m.dustEps) {
			st.receiveQueue = st.receiveQueue[1:]
		}
	}

	if remaining.GreaterThan(m.dustEps) {
		// The wallet sold more than its recorded history acquired. The
		// surplus is booked against a synthesized pre-history receive so
		// the sale stays on the books and the gap stays visible.
		implicit := models.NewFinancialEvent(sell.TransactionID, sell.WalletAddress,
			models.EventReceive, tokenAddr, sell.TokenSymbol, remaining, decimal.Zero, sell.Timestamp)
		st.consumptions = append(st.consumptions, models.ReceiveConsumption{
			ReceiveEvent:      implicit,
			SellTransactionID: sell.TransactionID,
			ConsumedQuantity:  remaining,
			PnLImpactUSD:      decimal.Zero,
			Implicit:          true,
		})
		st.unmatchedSell = st.unmatchedSell.Add(remaining)
		st.incompleteCount++
		st.warnings = append(st.warnings, models.Warning{
			Kind:          models.WarnUnmatchedSell,
			TokenAddress:  tokenAddr,
			TransactionID: sell.TransactionID,
			Detail:        fmt.Sprintf("sold %s beyond known acquisitions", remaining),
		})
		m.log.WithFields(logrus.Fields{
			"token":    tokenAddr,
			"tx":       sell.TransactionID,
			"quantity": remaining.String(),
		}).Warn("sell exceeds known acquisitions")
	}
	return nil
}

// consumeForSend draws down inventory for an outbound transfer. Moving
// tokens out of the wallet is not a sale, so nothing is realized.
func (m *Matcher) consumeForSend(st *matchState, tokenAddr string, send models.FinancialEvent) {
	remaining := send.Quantity
	for _, queue := range []*[]models.BuyLot{&st.buyQueue, &st.receiveQueue} {
		for len(*queue) > 0 && remaining.GreaterThan(m.dustEps) {
			lot := &(*queue)[0]
			taken := decimal.Min(lot.RemainingQuantity, remaining)
			lot.RemainingQuantity = lot.RemainingQuantity.Sub(taken)
			remaining = remaining.Sub(taken)
			if lot.RemainingQuantity.LessThanOrEqual(m.dustEps) {
				*queue = (*queue)[1:]
			}
		}
	}
	if remaining.GreaterThan(m.dustEps) {
		st.warnings = append(st.warnings, models.Warning{
			Kind:          models.WarnOversoldPosition,
			TokenAddress:  tokenAddr,
			TransactionID: send.TransactionID,
			Detail:        fmt.Sprintf("sent %s beyond known inventory", remaining),
		})
	}
}

// remainingPosition values the leftover lots. Receive lots contribute
// quantity at zero cost basis.
func (m *Matcher) remainingPosition(st *matchState, tokenAddr, symbol string) (*models.RemainingPosition, error) {
	totalQty := decimal.Zero
	totalCost := decimal.Zero
	for _, lot := range st.buyQueue {
		totalQty = totalQty.Add(lot.RemainingQuantity)
		cost, err := checkedMul(lot.RemainingQuantity, lot.Event.USDPricePerToken)
		if err != nil {
			return nil, err
		}
		totalCost, err = safeAdd(totalCost, cost)
		if err != nil {
			return nil, err
		}
	}
	for _, lot := range st.receiveQueue {
		totalQty = totalQty.Add(lot.RemainingQuantity)
	}
	if totalQty.LessThanOrEqual(m.dustEps) {
		return nil, nil
	}

	avgCost := decimal.Zero
	if totalQty.IsPositive() {
		var err error
		avgCost, err = checkedDiv(totalCost, totalQty)
		if err != nil {
			return nil, err
		}
	}

	currentPrice := st.latestAnyPrice
	if m.policy == config.PriceLatestSell && st.latestSellPrice.IsPositive() {
		currentPrice = st.latestSellPrice
	}
	currentValue, err := checkedMul(totalQty, currentPrice)
	if err != nil {
		return nil, err
	}

	return &models.RemainingPosition{
		TokenAddress:      tokenAddr,
		TokenSymbol:       symbol,
		Quantity:          totalQty,
		AvgCostBasisUSD:   avgCost,
		TotalCostBasisUSD: totalCost,
		CurrentPriceUSD:   currentPrice,
		CurrentValueUSD:   currentValue,
		UnrealizedPnLUSD:  currentValue.Sub(totalCost),
	}, nil
}

func safeAdd(a, b decimal.Decimal) (decimal.Decimal, error) {
	result := a.Add(b)
	if result.Abs().GreaterThan(maxAbsValue) {
		return decimal.Zero, fmt.Errorf("%w: %s + %s", models.ErrArithmeticOverflow, a, b)
	}
	return result, nil
}
