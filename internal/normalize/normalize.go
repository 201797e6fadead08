// Package normalize converts consolidated trade pairs into financial events.
// Pricing favors the stable leg: whatever USD actually left or entered the
// wallet is the truth, and volatile legs are priced implicitly from it.
package normalize

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

type Normalizer struct {
	imbalanceRatio decimal.Decimal
	isReference    func(string) bool
	isUSDStable    func(string) bool
	log            *logrus.Entry
}

func New(cfg *config.Config) *Normalizer {
	return &Normalizer{
		imbalanceRatio: cfg.ImbalanceRatio,
		isReference:    cfg.IsReferenceAsset,
		isUSDStable:    cfg.IsUSDStable,
		log:            logrus.WithField("component", "normalizer"),
	}
}

// Normalize converts pairs into buy/sell/receive/send events for the given
// wallet. A pair that cannot be priced coherently is skipped with a warning;
// the rest of the history still normalizes.
func (n *Normalizer) Normalize(wallet string, pairs []models.TradePair) ([]models.FinancialEvent, []models.Warning) {
	var events []models.FinancialEvent
	var warnings []models.Warning
	for i := range pairs {
		evs, ws := n.convertPair(wallet, &pairs[i])
		events = append(events, evs...)
		warnings = append(warnings, ws...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, warnings
}

func (n *Normalizer) convertPair(wallet string, pair *models.TradePair) ([]models.FinancialEvent, []models.Warning) {
	var volatile, refIn, refOut []models.ProviderTransferRecord
	for _, r := range pair.InTransfers {
		if n.isReference(r.TokenAddress) {
			refIn = append(refIn, r)
		} else {
			volatile = append(volatile, r)
		}
	}
	for _, r := range pair.OutTransfers {
		if n.isReference(r.TokenAddress) {
			refOut = append(refOut, r)
		} else {
			volatile = append(volatile, r)
		}
	}

	switch {
	case len(volatile) == 0:
		return n.convertReferenceOnly(wallet, pair, refIn, refOut)
	case len(refIn) == 0 && len(refOut) == 0:
		return n.convertTransferOrSwap(wallet, pair)
	default:
		return n.convertQuotedTrade(wallet, pair, volatile, refIn, refOut)
	}
}

// convertReferenceOnly handles pairs made entirely of reference assets.
// SOL and its staking tokens are still positions a wallet can trade, so a
// SOL/stable exchange prices the SOL side from the USD legs; pure
// stable-for-stable rebalances carry no position change.
func (n *Normalizer) convertReferenceOnly(wallet string, pair *models.TradePair, refIn, refOut []models.ProviderTransferRecord) ([]models.FinancialEvent, []models.Warning) {
	var solIn, solOut, usdIn, usdOut []models.ProviderTransferRecord
	for _, r := range refIn {
		if n.isUSDStable(r.TokenAddress) {
			usdIn = append(usdIn, r)
		} else {
			solIn = append(solIn, r)
		}
	}
	for _, r := range refOut {
		if n.isUSDStable(r.TokenAddress) {
			usdOut = append(usdOut, r)
		} else {
			solOut = append(solOut, r)
		}
	}

	switch {
	case len(solIn) > 0 && len(solOut) == 0 && len(usdIn)+len(usdOut) > 0:
		return n.convertQuotedTrade(wallet, pair, solIn, usdIn, usdOut)
	case len(solOut) > 0 && len(solIn) == 0 && len(usdIn)+len(usdOut) > 0:
		return n.convertQuotedTrade(wallet, pair, solOut, usdIn, usdOut)
	case len(pair.OutTransfers) == 0 && len(solIn) > 0:
		return sideEvents(wallet, solIn, models.EventReceive, pair.TransactionID), nil
	case len(pair.InTransfers) == 0 && len(solOut) > 0:
		return sideEvents(wallet, solOut, models.EventSend, pair.TransactionID), nil
	default:
		// Stable rebalances and SOL/LST conversions: no position change.
		return nil, nil
	}
}

// convertQuotedTrade prices every volatile leg from the reference side of
// the trade. One implicit price covers all volatile transfers in the pair.
// When the volatile legs cannot share a price (mixed directions, zero total
// quantity), implicit pricing is abandoned and every transfer in the pair
// converts independently with its own embedded price instead.
func (n *Normalizer) convertQuotedTrade(wallet string, pair *models.TradePair, volatile, refIn, refOut []models.ProviderTransferRecord) ([]models.FinancialEvent, []models.Warning) {
	dir := volatile[0].Direction
	for _, r := range volatile[1:] {
		if r.Direction != dir {
			warn := models.Warning{
				Kind:          models.WarnMixedDirections,
				TransactionID: pair.TransactionID,
				Detail:        fmt.Sprintf("trade act %s: %v, using per-transfer conversion", pair.TradeActID, models.ErrMixedDirections),
			}
			events, ws := n.perTransferEvents(wallet, pair)
			return events, append([]models.Warning{warn}, ws...)
		}
	}

	// The outbound reference side is the authoritative USD amount; the
	// inbound side only stands in when nothing went out.
	quoteUSD := n.sumQuoteUSD(refOut)
	if !quoteUSD.IsPositive() {
		quoteUSD = n.sumQuoteUSD(refIn)
	}

	volQty := decimal.Zero
	volUSD := decimal.Zero
	for _, r := range volatile {
		volQty = volQty.Add(r.Quantity)
		volUSD = volUSD.Add(r.USDValue())
	}
	if !volQty.IsPositive() {
		warn := models.Warning{
			Kind:          models.WarnZeroVolatile,
			TransactionID: pair.TransactionID,
			Detail:        fmt.Sprintf("trade act %s: %v, using per-transfer conversion", pair.TradeActID, models.ErrZeroVolatileQuantity),
		}
		events, ws := n.perTransferEvents(wallet, pair)
		return events, append([]models.Warning{warn}, ws...)
	}

	var warnings []models.Warning
	if volUSD.IsPositive() && quoteUSD.IsPositive() {
		diff := quoteUSD.Sub(volUSD).Abs()
		max := decimal.Max(quoteUSD, volUSD)
		if diff.Div(max).GreaterThan(n.imbalanceRatio) {
			warnings = append(warnings, models.Warning{
				Kind:          models.WarnValueImbalance,
				TransactionID: pair.TransactionID,
				Detail: fmt.Sprintf("reference leg $%s vs volatile leg $%s in trade act %s",
					quoteUSD.StringFixed(2), volUSD.StringFixed(2), pair.TradeActID),
			})
		}
	}

	if !quoteUSD.IsPositive() {
		// No priced reference leg either way: fall back to provider prices
		// on the volatile legs, or give up on this pair.
		if !volUSD.IsPositive() {
			return nil, append(warnings, models.Warning{
				Kind:          models.WarnMissingPrice,
				TransactionID: pair.TransactionID,
				Detail:        fmt.Sprintf("trade act %s has no usable price on either side", pair.TradeActID),
			})
		}
		quoteUSD = volUSD
	}

	implicitPrice := quoteUSD.Div(volQty)
	evType := models.EventBuy
	if dir == models.DirectionOut {
		evType = models.EventSell
	}
	events := make([]models.FinancialEvent, 0, len(volatile))
	for _, r := range volatile {
		ev := models.NewFinancialEvent(pair.TransactionID, wallet, evType,
			r.TokenAddress, constants.SymbolFor(r.TokenAddress, r.TokenSymbol),
			r.Quantity, implicitPrice, r.Timestamp)
		events = append(events, ev)
	}
	return events, warnings
}

// convertTransferOrSwap handles pairs without a stable leg: one-sided plain
// transfers become receive/send events, two-sided pairs become a
// token-to-token swap where both legs carry the same USD value.
func (n *Normalizer) convertTransferOrSwap(wallet string, pair *models.TradePair) ([]models.FinancialEvent, []models.Warning) {
	switch {
	case len(pair.OutTransfers) == 0:
		return sideEvents(wallet, pair.InTransfers, models.EventReceive, pair.TransactionID), nil
	case len(pair.InTransfers) == 0:
		return sideEvents(wallet, pair.OutTransfers, models.EventSend, pair.TransactionID), nil
	}

	outQty, outUSD := sideTotals(pair.OutTransfers)
	inQty, inUSD := sideTotals(pair.InTransfers)
	if !outQty.IsPositive() || !inQty.IsPositive() {
		return nil, []models.Warning{{
			Kind:          models.WarnZeroVolatile,
			TransactionID: pair.TransactionID,
			Detail:        fmt.Sprintf("trade act %s: %v", pair.TradeActID, models.ErrZeroVolatileQuantity),
		}}
	}

	// Swap legs must agree on value. The sell side's direct price wins when
	// available since what left the wallet is what was actually paid.
	tradeUSD := outUSD
	if !tradeUSD.IsPositive() {
		tradeUSD = inUSD
	}
	if !tradeUSD.IsPositive() {
		return nil, []models.Warning{{
			Kind:          models.WarnMissingPrice,
			TransactionID: pair.TransactionID,
			Detail:        fmt.Sprintf("token swap in trade act %s has no usable price on either side", pair.TradeActID),
		}}
	}

	sells := swapSideEvents(wallet, pair, pair.OutTransfers, models.EventSell,
		tradeUSD, outQty, outUSD, pair.InTransfers[0].TokenAddress)
	buys := swapSideEvents(wallet, pair, pair.InTransfers, models.EventBuy,
		tradeUSD, inQty, inUSD, pair.OutTransfers[0].TokenAddress)
	return append(sells, buys...), nil
}

// swapSideEvents emits one event per token on a swap side, splitting the
// trade's USD value across tokens by their direct value share, or by
// quantity when the side carried no prices.
func swapSideEvents(wallet string, pair *models.TradePair, records []models.ProviderTransferRecord, typ models.EventType, tradeUSD, sideQty, sideUSD decimal.Decimal, counterpart string) []models.FinancialEvent {
	type tokenAgg struct {
		record models.ProviderTransferRecord
		qty    decimal.Decimal
		usd    decimal.Decimal
	}
	aggs := make(map[string]*tokenAgg)
	var order []string
	for _, r := range records {
		a, ok := aggs[r.TokenAddress]
		if !ok {
			a = &tokenAgg{record: r}
			aggs[r.TokenAddress] = a
			order = append(order, r.TokenAddress)
		}
		a.qty = a.qty.Add(r.Quantity)
		a.usd = a.usd.Add(r.USDValue())
	}

	events := make([]models.FinancialEvent, 0, len(order))
	for _, addr := range order {
		a := aggs[addr]
		if !a.qty.IsPositive() {
			continue
		}
		var tokenValue decimal.Decimal
		if sideUSD.IsPositive() {
			tokenValue = a.usd.Mul(tradeUSD).Div(sideUSD)
		} else {
			tokenValue = tradeUSD.Mul(a.qty).Div(sideQty)
		}
		ev := models.NewFinancialEvent(pair.TransactionID, wallet, typ,
			addr, constants.SymbolFor(addr, a.record.TokenSymbol),
			a.qty, tokenValue.Div(a.qty), a.record.Timestamp)
		ev.CounterpartToken = counterpart
		events = append(events, ev)
	}
	return events
}

func sideEvents(wallet string, records []models.ProviderTransferRecord, typ models.EventType, txID string) []models.FinancialEvent {
	events := make([]models.FinancialEvent, 0, len(records))
	for _, r := range records {
		price := decimal.Zero
		if r.HasPrice() {
			price = *r.USDPricePerUnit
		}
		events = append(events, models.NewFinancialEvent(txID, wallet, typ,
			r.TokenAddress, constants.SymbolFor(r.TokenAddress, r.TokenSymbol),
			r.Quantity, price, r.Timestamp))
	}
	return events
}

func sideTotals(records []models.ProviderTransferRecord) (qty, usd decimal.Decimal) {
	for _, r := range records {
		qty = qty.Add(r.Quantity)
		usd = usd.Add(r.USDValue())
	}
	return qty, usd
}

// sumQuoteUSD values reference legs at their provider price. Only
// USD-pegged mints may fall back to the 1:1 quantity when the provider
// shipped no price; an unpriced SOL leg contributes nothing.
func (n *Normalizer) sumQuoteUSD(records []models.ProviderTransferRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		switch {
		case r.HasPrice():
			total = total.Add(r.USDValue())
		case n.isUSDStable(r.TokenAddress):
			total = total.Add(r.Quantity)
		}
	}
	return total
}

// perTransferEvents converts every transfer in the pair independently with
// its own embedded price: inbound legs become buys, outbound legs sells.
// Legs that cannot be priced are skipped with a warning so nothing drops
// silently.
func (n *Normalizer) perTransferEvents(wallet string, pair *models.TradePair) ([]models.FinancialEvent, []models.Warning) {
	var events []models.FinancialEvent
	var warnings []models.Warning

	convert := func(r models.ProviderTransferRecord, typ models.EventType) {
		if !r.Quantity.IsPositive() {
			return
		}
		var price decimal.Decimal
		switch {
		case r.HasPrice():
			price = *r.USDPricePerUnit
		case n.isUSDStable(r.TokenAddress):
			price = decimal.NewFromInt(1)
		default:
			warnings = append(warnings, models.Warning{
				Kind:          models.WarnMissingPrice,
				TokenAddress:  r.TokenAddress,
				TransactionID: pair.TransactionID,
				Detail:        fmt.Sprintf("unpriced %s leg skipped in per-transfer conversion of trade act %s", constants.SymbolFor(r.TokenAddress, r.TokenSymbol), pair.TradeActID),
			})
			return
		}
		events = append(events, models.NewFinancialEvent(pair.TransactionID, wallet, typ,
			r.TokenAddress, constants.SymbolFor(r.TokenAddress, r.TokenSymbol),
			r.Quantity, price, r.Timestamp))
	}

	for _, r := range pair.InTransfers {
		convert(r, models.EventBuy)
	}
	for _, r := range pair.OutTransfers {
		convert(r, models.EventSell)
	}
	return events, warnings
}

// GroupEventsByToken buckets events per token address, each bucket in
// chronological order.
func GroupEventsByToken(events []models.FinancialEvent) map[string][]models.FinancialEvent {
	grouped := make(map[string][]models.FinancialEvent)
	for _, ev := range events {
		grouped[ev.TokenAddress] = append(grouped[ev.TokenAddress], ev)
	}
	for _, evs := range grouped {
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Timestamp.Before(evs[j].Timestamp)
		})
	}
	return grouped
}
